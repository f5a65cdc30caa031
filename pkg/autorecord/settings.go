package autorecord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/autorecord/pkg/dom"
	"github.com/entrhq/autorecord/pkg/workflow"
)

// Settings workflow step names.
const (
	StepSelectTab      = "select tab"
	StepSelectLanguage = "select language"
	StepEnableOptions  = "enable recording options"
	StepSave           = "save"
)

// SettingsWorkflow builds the workflow that configures recording defaults in
// the calendar settings frame: open the records tab, pick the language, tick
// every recording-related checkbox and save.
func (e *Env) SettingsWorkflow(doc dom.Document) workflow.Definition {
	l, s, t := e.opts.Labels, e.opts.Selectors, e.opts.Timings

	return workflow.Definition{
		Name:  "configure_settings",
		Delay: t.SettingsDelay,
		Steps: []workflow.Step{
			{
				Name:   StepSelectTab,
				Reason: fmt.Sprintf("Could not find %s tab", l.SettingsTab),
				Settle: t.TabSettle,
				Action: func(ctx context.Context) error {
					tab, err := e.locate(ctx, doc, dom.FirstOf(l.SettingsTab+" tab",
						dom.Select(s.Tab).Matching(dom.TextOrLabelContains(l.SettingsTab)),
						dom.Select(attrSelector(s.Tab, "description", l.SettingsTab)),
					))
					if err != nil {
						return err
					}
					return click(tab, l.SettingsTab+" tab")
				},
			},
			{
				Name:   StepSelectLanguage,
				Reason: fmt.Sprintf("Could not select %s", l.Language),
				Settle: t.LanguageSettle,
				Action: func(ctx context.Context) error {
					return e.selectLanguage(ctx, doc)
				},
			},
			{
				Name:   StepEnableOptions,
				Reason: "Could not enable recording options",
				Settle: t.CheckboxesSettle,
				Action: func(ctx context.Context) error {
					_, err := e.enableCheckboxes(ctx, doc, e.match.settings, nil, t.CheckboxSettle)
					return err
				},
			},
			{
				Name:   StepSave,
				Reason: fmt.Sprintf("%s button not found or disabled", l.SaveButton),
				Action: func(ctx context.Context) error {
					save, err := e.locate(ctx, doc, dom.FirstOf(l.SaveButton+" button",
						dom.Select("button").Matching(dom.TextContains(l.SaveButton)).Matching(dom.Enabled),
						dom.Select(attrSelector("button", "aria-label", l.SaveButton)).Matching(dom.Enabled),
					))
					if err != nil {
						return err
					}
					return click(save, l.SaveButton+" button")
				},
			},
		},
		Verify: &workflow.Verification{
			Check: func(context.Context) error {
				return e.verifyCheckboxes(doc)
			},
		},
	}
}

// selectLanguage opens the language control and picks the configured option.
// A control that already shows the language is left alone.
func (e *Env) selectLanguage(ctx context.Context, doc dom.Document) error {
	l, s, t := e.opts.Labels, e.opts.Selectors, e.opts.Timings

	control, err := e.locate(ctx, doc, dom.Select(s.LanguageControl).Describe("language control"))
	if err != nil {
		return err
	}
	if selectedLanguage(control) == l.Language {
		e.logger.Debugf("language already %s", l.Language)
		return nil
	}
	if err := click(control, "language control"); err != nil {
		return err
	}
	if err := workflow.Sleep(ctx, t.LanguageOpen); err != nil {
		return err
	}

	option, err := e.locate(ctx, doc, dom.Select(s.Option).
		Matching(dom.Any(dom.TextContains(l.Language), func(n dom.Node) bool {
			return dom.AttrValue(n, "value") == l.Language
		})).
		Describe(l.Language+" option"))
	if err != nil {
		return err
	}
	return click(option, l.Language+" option")
}

// selectedLanguage reads the value a language control currently shows.
func selectedLanguage(control dom.Node) string {
	if control.Tag() == "select" {
		opts, err := control.Find("option[selected]")
		if err != nil || len(opts) == 0 {
			return ""
		}
		return strings.TrimSpace(opts[0].Text())
	}
	return strings.TrimSpace(control.Text())
}

// enableCheckboxes clicks every unchecked, enabled checkbox whose label
// matches include and not exclude, waiting settle after each click. It returns
// how many it clicked.
func (e *Env) enableCheckboxes(ctx context.Context, doc dom.Document, include, exclude *dom.Keywords, settle time.Duration) (int, error) {
	boxes, err := doc.Root().Find(e.opts.Selectors.Checkbox)
	if err != nil {
		return 0, err
	}
	clicked := 0
	for _, box := range boxes {
		label := dom.ControlLabel(box)
		if exclude.Match(label) || !include.Match(label) {
			continue
		}
		if box.Checked() || box.Disabled() {
			continue
		}
		if err := click(box, fmt.Sprintf("checkbox %q", abbreviate(label, 50))); err != nil {
			return clicked, err
		}
		clicked++
		e.logger.Debugf("enabled %q", abbreviate(label, 50))
		if err := workflow.Sleep(ctx, settle); err != nil {
			return clicked, err
		}
	}
	return clicked, nil
}

// verifyCheckboxes checks that every applicable enabled checkbox reads
// checked. A frame whose controls are gone after saving passes.
func (e *Env) verifyCheckboxes(doc dom.Document) error {
	boxes, err := doc.Root().Find(e.opts.Selectors.Checkbox)
	if err != nil {
		e.logger.Debugf("settings controls unreadable after save: %v", err)
		return nil
	}
	var unchecked []string
	for _, box := range boxes {
		label := dom.ControlLabel(box)
		if !e.match.settings.Match(label) || box.Disabled() {
			continue
		}
		if !box.Checked() {
			unchecked = append(unchecked, abbreviate(label, 40))
		}
	}
	if len(unchecked) > 0 {
		return fmt.Errorf("options still off: %s", strings.Join(unchecked, ", "))
	}
	return nil
}

func abbreviate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

package autorecord

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/autorecord/pkg/dom"
)

// Labels is the text the engine matches against. Matching is substring based,
// so a UI copy change breaks discovery; keep these in configuration.
type Labels struct {
	SettingsTab       string   `mapstructure:"settings_tab" yaml:"settings_tab" validate:"required"`
	Language          string   `mapstructure:"language" yaml:"language" validate:"required"`
	SettingsKeywords  []string `mapstructure:"settings_keywords" yaml:"settings_keywords" validate:"required,min=1,dive,required"`
	SaveButton        string   `mapstructure:"save_button" yaml:"save_button" validate:"required"`
	MeetingTools      string   `mapstructure:"meeting_tools" yaml:"meeting_tools" validate:"required"`
	RecordingOption   string   `mapstructure:"recording_option" yaml:"recording_option" validate:"required"`
	RecordingKeywords []string `mapstructure:"recording_keywords" yaml:"recording_keywords" validate:"required,min=1,dive,required"`
	ExcludeKeywords   []string `mapstructure:"exclude_keywords" yaml:"exclude_keywords"`
	StartRecording    string   `mapstructure:"start_recording" yaml:"start_recording" validate:"required"`
	StopRecording     string   `mapstructure:"stop_recording" yaml:"stop_recording" validate:"required"`
	RecordingBanner   string   `mapstructure:"recording_banner" yaml:"recording_banner"`
	DismissButton     string   `mapstructure:"dismiss_button" yaml:"dismiss_button"`
	ConsentPatterns   []string `mapstructure:"consent_patterns" yaml:"consent_patterns"`
	ConsentButton     string   `mapstructure:"consent_button" yaml:"consent_button"`
	CloseButton       string   `mapstructure:"close_button" yaml:"close_button"`
	VideoCallOptions  string   `mapstructure:"video_call_options" yaml:"video_call_options" validate:"required"`
	LoadingText       string   `mapstructure:"loading_text" yaml:"loading_text"`
	CallControls      []string `mapstructure:"call_controls" yaml:"call_controls" validate:"required,min=1,dive,required"`
}

// DefaultLabels returns the English Google Workspace copy.
func DefaultLabels() Labels {
	return Labels{
		SettingsTab:       "Meeting records",
		Language:          "English",
		SettingsKeywords:  []string{"Gemini", "notes", "Transcribe", "transcript", "Record", "recording"},
		SaveButton:        "Save",
		MeetingTools:      "Meeting tools",
		RecordingOption:   "Recording",
		RecordingKeywords: []string{"Gemini", "notes", "transcript", "caption"},
		ExcludeKeywords:   []string{"stop"},
		StartRecording:    "Start recording",
		StopRecording:     "Stop recording",
		RecordingBanner:   "This call is being recorded",
		DismissButton:     "Got it",
		ConsentPatterns:   []string{"Make sure everyone is ready", "consent"},
		ConsentButton:     "Start",
		CloseButton:       "Close",
		VideoCallOptions:  "Video call options",
		LoadingText:       "Adding conferencing details",
		CallControls:      []string{"Leave call", "Turn on microphone", "Turn off microphone"},
	}
}

// Selectors are the structural CSS selectors, independent of UI copy.
type Selectors struct {
	Dialog           string `mapstructure:"dialog" yaml:"dialog" validate:"required"`
	SettingsFrame    string `mapstructure:"settings_frame" yaml:"settings_frame" validate:"required"`
	ConferencingLink string `mapstructure:"conferencing_link" yaml:"conferencing_link" validate:"required"`
	EventContainer   string `mapstructure:"event_container" yaml:"event_container"`
	Tab              string `mapstructure:"tab" yaml:"tab" validate:"required"`
	LanguageControl  string `mapstructure:"language_control" yaml:"language_control" validate:"required"`
	Option           string `mapstructure:"option" yaml:"option" validate:"required"`
	Checkbox         string `mapstructure:"checkbox" yaml:"checkbox" validate:"required"`
	Button           string `mapstructure:"button" yaml:"button" validate:"required"`
	SidePanel        string `mapstructure:"side_panel" yaml:"side_panel"`
}

// DefaultSelectors returns selectors for the current Calendar and Meet markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Dialog:           `[role="dialog"]`,
		SettingsFrame:    `iframe[src*="meet.google.com/calendarsettings"]`,
		ConferencingLink: `a[href*="meet.google.com"]`,
		EventContainer:   `[data-eventid], [data-eventchip], [role="dialog"], [role="main"]`,
		Tab:              `[role="tab"]`,
		LanguageControl:  `select, [role="listbox"], [role="combobox"]`,
		Option:           `[role="option"], option`,
		Checkbox:         `[role="checkbox"], input[type="checkbox"]`,
		Button:           `button, [role="button"]`,
		SidePanel:        `[role="complementary"]`,
	}
}

// Pages identifies the documents the engine attaches to.
type Pages struct {
	CalendarOrigin string `mapstructure:"calendar_origin" yaml:"calendar_origin" validate:"required,url"`
	MeetOrigin     string `mapstructure:"meet_origin" yaml:"meet_origin" validate:"required,url"`
	// URL globs, matched with gobwas/glob.
	CalendarURL      string `mapstructure:"calendar_url" yaml:"calendar_url" validate:"required"`
	SettingsFrameURL string `mapstructure:"settings_frame_url" yaml:"settings_frame_url" validate:"required"`
	MeetCallURL      string `mapstructure:"meet_call_url" yaml:"meet_call_url" validate:"required"`
}

// DefaultPages returns the Google Calendar and Meet origins.
func DefaultPages() Pages {
	return Pages{
		CalendarOrigin:   "https://calendar.google.com",
		MeetOrigin:       "https://meet.google.com",
		CalendarURL:      "https://calendar.google.com/*",
		SettingsFrameURL: "https://meet.google.com/*calendarsettings*",
		MeetCallURL:      "https://meet.google.com/[a-z][a-z][a-z]-[a-z][a-z][a-z][a-z]-[a-z][a-z][a-z]*",
	}
}

// Timings holds every fixed wait. All waits are bounded.
type Timings struct {
	LocateTimeout time.Duration `mapstructure:"locate_timeout" yaml:"locate_timeout" validate:"gt=0"`

	SettingsDelay    time.Duration `mapstructure:"settings_delay" yaml:"settings_delay" validate:"gte=0"`
	TabSettle        time.Duration `mapstructure:"tab_settle" yaml:"tab_settle" validate:"gte=0"`
	LanguageOpen     time.Duration `mapstructure:"language_open" yaml:"language_open" validate:"gte=0"`
	LanguageSettle   time.Duration `mapstructure:"language_settle" yaml:"language_settle" validate:"gte=0"`
	CheckboxSettle   time.Duration `mapstructure:"checkbox_settle" yaml:"checkbox_settle" validate:"gte=0"`
	CheckboxesSettle time.Duration `mapstructure:"checkboxes_settle" yaml:"checkboxes_settle" validate:"gte=0"`

	AutoStartDelay time.Duration `mapstructure:"auto_start_delay" yaml:"auto_start_delay" validate:"gte=0"`
	MeetingPoll    time.Duration `mapstructure:"meeting_poll" yaml:"meeting_poll" validate:"gte=0"`
	PanelSettle    time.Duration `mapstructure:"panel_settle" yaml:"panel_settle" validate:"gte=0"`
	OptionSettle   time.Duration `mapstructure:"option_settle" yaml:"option_settle" validate:"gte=0"`
	ToggleSettle   time.Duration `mapstructure:"toggle_settle" yaml:"toggle_settle" validate:"gte=0"`
	DismissTries   int           `mapstructure:"dismiss_tries" yaml:"dismiss_tries" validate:"gte=0,lte=10"`
	DismissWait    time.Duration `mapstructure:"dismiss_wait" yaml:"dismiss_wait" validate:"gte=0"`
	DismissSettle  time.Duration `mapstructure:"dismiss_settle" yaml:"dismiss_settle" validate:"gte=0"`
	ConsentWait    time.Duration `mapstructure:"consent_wait" yaml:"consent_wait" validate:"gte=0"`
	VerifyWait     time.Duration `mapstructure:"verify_wait" yaml:"verify_wait" validate:"gte=0"`
	CollapseDelay  time.Duration `mapstructure:"collapse_delay" yaml:"collapse_delay" validate:"gte=0"`

	OptionsSearchTries    int           `mapstructure:"options_search_tries" yaml:"options_search_tries" validate:"gte=1"`
	OptionsSearchInterval time.Duration `mapstructure:"options_search_interval" yaml:"options_search_interval" validate:"gt=0"`
	OptionsSettle         time.Duration `mapstructure:"options_settle" yaml:"options_settle" validate:"gte=0"`
	HandshakeTimeout      time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout" validate:"gt=0"`

	NoticeDuration time.Duration `mapstructure:"notice_duration" yaml:"notice_duration" validate:"gte=0"`
	BriefNotice    time.Duration `mapstructure:"brief_notice" yaml:"brief_notice" validate:"gte=0"`
}

// DefaultTimings matches the pacing the live UI needs to render between
// actions.
func DefaultTimings() Timings {
	return Timings{
		LocateTimeout: 10 * time.Second,

		SettingsDelay:    time.Second,
		TabSettle:        500 * time.Millisecond,
		LanguageOpen:     300 * time.Millisecond,
		LanguageSettle:   300 * time.Millisecond,
		CheckboxSettle:   200 * time.Millisecond,
		CheckboxesSettle: 300 * time.Millisecond,

		AutoStartDelay: 3 * time.Second,
		MeetingPoll:    time.Second,
		PanelSettle:    500 * time.Millisecond,
		OptionSettle:   300 * time.Millisecond,
		ToggleSettle:   150 * time.Millisecond,
		DismissTries:   3,
		DismissWait:    500 * time.Millisecond,
		DismissSettle:  300 * time.Millisecond,
		ConsentWait:    500 * time.Millisecond,
		VerifyWait:     2 * time.Second,
		CollapseDelay:  500 * time.Millisecond,

		OptionsSearchTries:    10,
		OptionsSearchInterval: 500 * time.Millisecond,
		OptionsSettle:         500 * time.Millisecond,
		HandshakeTimeout:      10 * time.Second,

		NoticeDuration: 5 * time.Second,
		BriefNotice:    3 * time.Second,
	}
}

// matchers holds the compiled keyword lists.
type matchers struct {
	settings  *dom.Keywords
	recording *dom.Keywords
	exclude   *dom.Keywords
	consent   *dom.Keywords
}

func compileMatchers(l Labels) (matchers, error) {
	var m matchers
	var err error
	if m.settings, err = dom.CompileKeywords(l.SettingsKeywords, false); err != nil {
		return m, fmt.Errorf("settings keywords: %w", err)
	}
	if m.recording, err = dom.CompileKeywords(l.RecordingKeywords, false); err != nil {
		return m, fmt.Errorf("recording keywords: %w", err)
	}
	if m.exclude, err = dom.CompileKeywords(l.ExcludeKeywords, true); err != nil {
		return m, fmt.Errorf("exclude keywords: %w", err)
	}
	if m.consent, err = dom.CompileKeywords(l.ConsentPatterns, false); err != nil {
		return m, fmt.Errorf("consent patterns: %w", err)
	}
	return m, nil
}

// attrSelector builds `base[attr*="value"]` for each comma-separated part of
// base.
func attrSelector(base, attr, value string) string {
	value = strings.ReplaceAll(value, `"`, `\"`)
	parts := strings.Split(base, ",")
	for i, p := range parts {
		parts[i] = fmt.Sprintf(`%s[%s*="%s"]`, strings.TrimSpace(p), attr, value)
	}
	return strings.Join(parts, ", ")
}

// anyAttrSelector builds `[attr*="v1"], [attr*="v2"], ...`.
func anyAttrSelector(attr string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, attrSelector("", attr, v))
	}
	return strings.Join(parts, ", ")
}

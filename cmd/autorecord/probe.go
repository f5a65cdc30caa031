package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/entrhq/autorecord/pkg/autorecord"
	"github.com/entrhq/autorecord/pkg/config"
	"github.com/entrhq/autorecord/pkg/dom/htmldom"
	"github.com/entrhq/autorecord/pkg/logging"
	"github.com/entrhq/autorecord/pkg/notify"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	foundStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8E6CF"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB3BA"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var probeCmd = &cobra.Command{
	Use:   "probe <file.html>",
	Short: "Show what the engine would find in a saved page",
	Long: `probe loads a saved HTML snapshot as if it were served from --url and reports
the page context, detector state and the controls each workflow looks for.
Nothing is clicked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := htmldom.Parse(url, f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		opts := engineOptions(config.Global(), notify.Discard{}, logging.Nop(), nil)
		env, err := autorecord.NewEnv(opts)
		if err != nil {
			return err
		}

		printProbe(cmd.OutOrStdout(), env.Probe(doc))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().String("url", "https://calendar.google.com/calendar/r", "URL the snapshot was saved from")
}

func mark(found bool) string {
	if found {
		return foundStyle.Render("✓")
	}
	return missingStyle.Render("✗")
}

func printProbe(w io.Writer, r autorecord.ProbeReport) {
	fmt.Fprintf(w, "%s %s\n", headingStyle.Render(r.Context.String()), dimStyle.Render(r.URL))

	switch r.Context {
	case autorecord.CalendarHostContext:
		fmt.Fprintf(w, "  %s conferencing ready\n", mark(r.ConferencingReady))
	case autorecord.MeetCallContext:
		fmt.Fprintf(w, "  %s in meeting\n", mark(r.InMeeting))
		fmt.Fprintf(w, "  %s recording active\n", mark(r.RecordingActive))
	case autorecord.Unknown:
		fmt.Fprintln(w, dimStyle.Render("  not an automated page"))
		return
	}

	for _, f := range r.Findings {
		line := "  " + mark(f.Found) + " " + f.Control
		if f.Detail != "" && !strings.EqualFold(strings.TrimSpace(f.Detail), f.Control) {
			line += " " + dimStyle.Render(fmt.Sprintf("%q", f.Detail))
		}
		fmt.Fprintln(w, line)
	}

	if len(r.Checkboxes) > 0 {
		fmt.Fprintln(w, headingStyle.Render("  matching options"))
		for _, c := range r.Checkboxes {
			fmt.Fprintf(w, "    %s\n", c)
		}
	}
}

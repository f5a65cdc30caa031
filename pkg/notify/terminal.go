package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/autorecord/pkg/logging"
)

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	skyBlue    = lipgloss.Color("#A0C4FF")
	butter     = lipgloss.Color("#FDFFB6")
	mutedGray  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true)
	busyStyle  = lipgloss.NewStyle().Foreground(mutedGray).Italic(true)

	kindStyles = map[Kind]lipgloss.Style{
		Success: lipgloss.NewStyle().Foreground(mintGreen),
		Error:   lipgloss.NewStyle().Foreground(salmonPink),
		Info:    lipgloss.NewStyle().Foreground(skyBlue),
		Warning: lipgloss.NewStyle().Foreground(butter),
	}

	kindIcons = map[Kind]string{
		Success: "✓",
		Error:   "✗",
		Info:    "i",
		Warning: "!",
	}
)

// Terminal prints notices as styled lines.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal writes to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) ShowNotice(n Notice) {
	style, ok := kindStyles[n.Kind]
	if !ok {
		style = lipgloss.NewStyle()
	}
	line := style.Render(kindIcons[n.Kind]+" ") + titleStyle.Render(n.Title) + " " + style.Render(n.Message)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}

func (t *Terminal) ShowBusy(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, busyStyle.Render("… "+message))
}

func (t *Terminal) HideBusy() {}

// Log writes notices to a logger at a level matching their kind.
type Log struct {
	logger *logging.Logger
}

// NewLog wraps logger.
func NewLog(logger *logging.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) ShowNotice(n Notice) {
	switch n.Kind {
	case Error:
		l.logger.Errorf("%s: %s", n.Title, n.Message)
	case Warning:
		l.logger.Warnf("%s: %s", n.Title, n.Message)
	default:
		l.logger.Infof("%s: %s", n.Title, n.Message)
	}
}

func (l *Log) ShowBusy(message string) {
	l.logger.Debugf("busy: %s", message)
}

func (l *Log) HideBusy() {
	l.logger.Debugf("busy cleared")
}

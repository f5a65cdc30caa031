package detect

import (
	"strings"

	"github.com/entrhq/autorecord/pkg/dom"
)

// ModalConfig locates a dialog hosting the settings frame.
type ModalConfig struct {
	DialogCSS string
	FrameCSS  string
}

// NewModalDetector tracks whether a dialog containing the settings frame is
// open. It emits ModalOpened and ModalClosed.
func NewModalDetector(doc dom.Document, cfg ModalConfig) *State[bool] {
	compute := func(bool) bool {
		dialogs, err := doc.Root().Find(cfg.DialogCSS)
		if err != nil {
			return false
		}
		for _, d := range dialogs {
			frames, err := d.Find(cfg.FrameCSS)
			if err == nil && len(frames) > 0 {
				return true
			}
		}
		return false
	}
	return NewState("modal", false, compute, func(_, open bool) (Kind, any) {
		if open {
			return ModalOpened, nil
		}
		return ModalClosed, nil
	})
}

// NewLinkCountDetector keeps the highest number of conferencing links seen at
// once. It emits LinkCountIncreased, with the new count as payload, whenever
// that high-water mark grows.
func NewLinkCountDetector(doc dom.Document, linkCSS string) *State[int] {
	compute := func(prev int) int {
		links, err := doc.Root().Find(linkCSS)
		if err != nil || len(links) <= prev {
			return prev
		}
		return len(links)
	}
	return NewState("link_count", 0, compute, func(_, cur int) (Kind, any) {
		return LinkCountIncreased, cur
	})
}

// NewDialogDetector tracks the identity of the first open dialog. A different
// dialog element counts as a new instance even if no mutation batch saw the
// page without a dialog. It emits DialogAppeared with the dialog key as payload
// and DialogDismissed when no dialog remains.
func NewDialogDetector(doc dom.Document, dialogCSS string) *State[string] {
	compute := func(string) string {
		dialogs, err := doc.Root().Find(dialogCSS)
		if err != nil || len(dialogs) == 0 {
			return ""
		}
		return dialogs[0].Key()
	}
	return NewState("dialog", "", compute, func(_, cur string) (Kind, any) {
		if cur == "" {
			return DialogDismissed, nil
		}
		return DialogAppeared, cur
	})
}

// NewMeetingDetector tracks whether call-control affordances are present,
// meaning the user is in the call rather than the lobby. It emits
// MeetingJoined and MeetingLeft.
func NewMeetingDetector(doc dom.Document, controls dom.Query) *State[bool] {
	compute := func(bool) bool {
		return dom.Exists(doc.Root(), controls)
	}
	return NewState("meeting", false, compute, func(_, joined bool) (Kind, any) {
		if joined {
			return MeetingJoined, nil
		}
		return MeetingLeft, nil
	})
}

// NewConferencingDetector tracks whether the open dialog holds a conferencing
// link with no loading placeholder left in it. It emits ConferencingReady with
// the dialog key as payload and ConferencingCleared.
func NewConferencingDetector(doc dom.Document, dialogCSS, linkCSS, loadingText string) *State[string] {
	compute := func(string) string {
		dialogs, err := doc.Root().Find(dialogCSS)
		if err != nil || len(dialogs) == 0 {
			return ""
		}
		d := dialogs[0]
		if links, err := d.Find(linkCSS); err != nil || len(links) == 0 {
			return ""
		}
		if loadingText != "" && strings.Contains(d.Text(), loadingText) {
			return ""
		}
		return d.Key()
	}
	return NewState("conferencing", "", compute, func(_, cur string) (Kind, any) {
		if cur == "" {
			return ConferencingCleared, nil
		}
		return ConferencingReady, cur
	})
}

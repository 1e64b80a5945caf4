// Package inject delivers transcribed text into the focused application,
// either by simulating keystrokes or by pasting through the clipboard.
package inject

import (
	"fmt"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Injector types or pastes text into the active application.
type Injector struct {
	method           string // "type" or "paste"
	restoreClipboard bool
}

// NewInjector creates an Injector. method must be "type" (keystroke
// simulation, slower but clipboard-neutral) or "paste" (clipboard plus a
// paste chord, faster for long text). When restoreClipboard is set, the
// previous clipboard contents are put back after pasting.
func NewInjector(method string, restoreClipboard bool) *Injector {
	return &Injector{method: method, restoreClipboard: restoreClipboard}
}

// Inject sends text using the configured method. Empty text is a no-op.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	if inj.method == "paste" {
		return inj.paste(text)
	}
	robotgo.Type(text)
	return nil
}

func (inj *Injector) paste(text string) error {
	var prev string
	if inj.restoreClipboard {
		prev, _ = robotgo.ReadAll()
	}

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	if err := robotgo.KeyTap("v", pasteModifier()); err != nil {
		return fmt.Errorf("inject: paste chord: %w", err)
	}

	if inj.restoreClipboard {
		// Best effort; the paste already happened.
		_ = robotgo.WriteAll(prev)
	}

	return nil
}

// pasteModifier returns the platform's paste chord modifier.
func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

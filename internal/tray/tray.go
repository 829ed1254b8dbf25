// Package tray provides the system tray interface for the glove pipeline.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// previewRunes bounds the transcript tail shown in the menu.
const previewRunes = 24

// Tray is the system tray menu: a mute toggle, the last recognized gesture,
// a transcript preview, and quit. State flows in through the Set methods;
// user actions flow out through the On callbacks.
type Tray struct {
	onMute  func(muted bool)
	onClear func()
	onOpen  func()
	onQuit  func()
	muted   bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuMute       *systray.MenuItem
	menuStatus     *systray.MenuItem
	menuLast       *systray.MenuItem
	menuTranscript *systray.MenuItem
}

// New creates a tray starting unmuted.
func New() *Tray {
	return &Tray{}
}

// OnMute sets the callback invoked when the mute state is toggled.
func (t *Tray) OnMute(fn func(muted bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMute = fn
}

// OnClear sets the callback invoked when the clear-transcript item is clicked.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnOpen sets the callback invoked when the dashboard item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback invoked when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray event loop. It blocks until Quit is called, from a
// menu click or from the owner's shutdown path.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray event loop and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Glove Recognition")

	t.menuMute = systray.AddMenuItem("● Listening", "Toggle gesture output")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Starting...", "Pipeline status")
	t.menuStatus.Disable()
	t.menuLast = systray.AddMenuItem("Last: none", "Last recognized gesture")
	t.menuLast.Disable()
	t.menuTranscript = systray.AddMenuItem("Transcript: (empty)", "Current transcript")
	t.menuTranscript.Disable()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear Transcript", "Empty the transcript")
	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the control page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuMute.ClickedCh:
				t.handleMute()
			case <-menuClear.ClickedCh:
				t.handleClear()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleMute() {
	t.mu.Lock()
	t.muted = !t.muted
	muted := t.muted
	if muted {
		t.menuMute.SetTitle("○ Muted")
	} else {
		t.menuMute.SetTitle("● Listening")
	}
	callback := t.onMute
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(muted)
	}
}

func (t *Tray) handleClear() {
	t.mu.RLock()
	callback := t.onClear
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the pipeline status line.
func (t *Tray) SetStatus(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(text)
	}
}

// SetLastGesture updates the last-gesture line.
func (t *Tray) SetLastGesture(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast == nil {
		return
	}
	if name == "" {
		t.menuLast.SetTitle("Last: none")
	} else {
		t.menuLast.SetTitle("Last: " + name)
	}
}

// SetTranscript updates the transcript preview with the tail of the text.
func (t *Tray) SetTranscript(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuTranscript == nil {
		return
	}
	if text == "" {
		t.menuTranscript.SetTitle("Transcript: (empty)")
		return
	}
	runes := []rune(text)
	if len(runes) > previewRunes {
		text = "..." + string(runes[len(runes)-previewRunes:])
	}
	t.menuTranscript.SetTitle("Transcript: " + text)
}

// IsMuted returns the current mute state.
func (t *Tray) IsMuted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}

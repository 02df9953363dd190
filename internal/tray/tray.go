// Package tray provides a system tray menu for the carnival: pick a mode,
// toggle sound, open the game in a browser or quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/carnival/internal/app"
	"github.com/ayusman/carnival/internal/mode"
)

const title = "Carnival"

// Tray represents the system tray application.
type Tray struct {
	onMode  func(name mode.Name)
	onSound func(on bool)
	onOpen  func()
	onQuit  func()
	sound   bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuSound  *systray.MenuItem
}

// New creates a new Tray with sound on.
func New() *Tray {
	return &Tray{sound: true}
}

// OnMode sets the callback run when a mode is picked from the menu.
func (t *Tray) OnMode(fn func(name mode.Name)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnSound sets the callback run when sound is toggled.
func (t *Tray) OnSound(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSound = fn
}

// OnOpen sets the callback run when "Open in Browser" is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(title)
	systray.SetTooltip("Webcam carnival")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("At the menu", "Current screen")
	t.menuStatus.Disable()
	systray.AddSeparator()

	modes := app.Modes()
	items := make([]*systray.MenuItem, len(modes))
	for i, m := range modes {
		items[i] = systray.AddMenuItem(m.Title, "Choose "+m.Title)
	}
	systray.AddSeparator()

	t.menuSound = systray.AddMenuItemCheckbox("Sound", "Play notes", t.sound)
	menuOpen := systray.AddMenuItem("Open in Browser", "Open the game in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Carnival")
	t.mu.Unlock()

	for i, item := range items {
		name := modes[i].Name
		go func() {
			for range item.ClickedCh {
				t.handleMode(name)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-t.menuSound.ClickedCh:
				t.handleSound()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleMode(name mode.Name) {
	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	if callback != nil {
		callback(name)
	}
}

func (t *Tray) handleSound() {
	t.mu.Lock()
	t.sound = !t.sound
	on := t.sound
	t.setSoundItem(on)
	callback := t.onSound
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(on)
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

// setSoundItem updates the checkbox. Callers hold t.mu.
func (t *Tray) setSoundItem(on bool) {
	if t.menuSound == nil {
		return
	}
	if on {
		t.menuSound.Check()
	} else {
		t.menuSound.Uncheck()
	}
}

// Sync reflects the controller state in the menu.
func (t *Tray) Sync(st *app.State) {
	if st == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sound = st.Sound
	t.setSoundItem(st.Sound)
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(Status(st))
		systray.SetTitle(title + " · " + Status(st))
	}
}

// Status is the one-line description of st shown in the menu.
func Status(st *app.State) string {
	switch {
	case st.Screen == app.ScreenMenu || st.Selected == "":
		return "At the menu"
	case st.Screen == app.ScreenInstructions:
		return st.Selected.Title() + " (instructions)"
	case st.Game != nil && st.Game.State == mode.Ended:
		return st.Selected.Title() + " (game over)"
	default:
		return "Playing " + st.Selected.Title()
	}
}

// Package tray provides the system tray menu of the game: pause, the
// session high score, the live view and quit.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onPause func(paused bool)
	onOpen  func()
	onQuit  func()
	paused  bool
	score   int
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuPause     *systray.MenuItem
	menuHighScore *systray.MenuItem
}

// New creates a new Tray, not paused.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback called when the pause item is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnOpen sets the callback called when the live view item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback called when the quit item is clicked.
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
	systray.SetTitle("Superimpose")
	systray.SetTooltip("Superimpose motion game")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume the game")
	systray.AddSeparator()
	t.menuHighScore = systray.AddMenuItem(highScoreTitle(t.score), "Best score this session")
	t.menuHighScore.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Live View...", "Watch the game in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Superimpose")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.TogglePause()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// TogglePause flips the paused state, updates the menu and calls the pause
// callback. It returns the new state.
func (t *Tray) TogglePause() bool {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
	return paused
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

// SetHighScore updates the high score shown in the menu.
func (t *Tray) SetHighScore(score int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if score == t.score {
		return
	}
	t.score = score
	if t.menuHighScore != nil {
		t.menuHighScore.SetTitle(highScoreTitle(score))
	}
}

// HighScore returns the high score last set.
func (t *Tray) HighScore() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.score
}

// Paused returns the current paused state.
func (t *Tray) Paused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

func pauseTitle(paused bool) string {
	if paused {
		return "○ Paused"
	}
	return "● Playing"
}

func highScoreTitle(score int) string {
	return fmt.Sprintf("High score: %d", score)
}

package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/superimpose/internal/render"
)

// Run plays the game on screen until ctx is cancelled or the player quits.
// screen must be initialized; the caller finalizes it after Run returns.
func (a *App) Run(ctx context.Context, screen tcell.Screen) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()

	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			log.Printf("Camera not available (%v), waiting for poses over the websocket", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.runPipeline(ctx)
			}()
			log.Println("Detection pipeline started")
		}
	}

	keys := make(chan rune, 16)
	go pollKeys(ctx, screen, keys, cancel)

	term := render.NewTerminal(screen)
	rate := a.config.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-keys:
			if a.HandleKey(r) {
				log.Println("Quit requested")
				return nil
			}
		case <-ticker.C:
			a.Tick()
			a.Frame(term)
		}
	}
}

// Frame draws one frame onto term and shows it.
func (a *App) Frame(term *render.Terminal) {
	if a.fullscreen {
		term.SetFooter("")
	} else {
		term.SetFooter(a.footer())
	}
	term.Clear(render.Black)
	a.Draw(term)
	term.Flush()
}

func (a *App) footer() string {
	st := a.Status()
	state := string(st.Scene)
	if a.Paused() {
		state += " (paused)"
	}
	return fmt.Sprintf(" %s | score %d | lives %d | high score %d | F fullscreen  Q quit", state, st.Score, st.Lives, st.HighScore)
}

// pollKeys forwards key presses from screen. Escape and Ctrl-C cancel the
// game; it stops when the screen is finalized.
func pollKeys(ctx context.Context, screen tcell.Screen, keys chan<- rune, cancel context.CancelFunc) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}

		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}

		switch key.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			cancel()
			return
		case tcell.KeyRune:
			select {
			case keys <- key.Rune():
			case <-ctx.Done():
				return
			}
		}
	}
}

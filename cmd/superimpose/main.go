package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/superimpose/internal/app"
	"github.com/ayusman/superimpose/internal/config"
	"github.com/ayusman/superimpose/internal/server"
	"github.com/ayusman/superimpose/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	noCamera := flag.Bool("no-camera", false, "run without a webcam, taking poses from the websocket")
	staticDir := flag.String("static", "", "directory of static files for the live view")
	flag.Parse()

	fmt.Println("Superimpose - match the pose before it reaches you")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// The terminal belongs to the game, so logs go to a file.
	logFile, err := openLog()
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	a, err := app.New(app.Config{Config: cfg, NoCamera: *noCamera})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir: *staticDir,
			Store:     a.Store(),
			Frames:    a.Frames(),
			Feed:      a.Feed(),
			State:     a,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Failed to create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Failed to initialize screen: %v", err)
	}

	if !cfg.Tray {
		runGame(ctx, a, screen)
		return
	}

	t := tray.New()
	t.OnPause(a.SetPaused)
	t.OnQuit(cancel)
	t.OnOpen(func() { openBrowser("http://" + cfg.Server.Addr) })

	go trackHighScore(ctx, a, t)
	go func() {
		runGame(ctx, a, screen)
		t.Quit()
	}()

	// The tray needs the main thread.
	t.Run()
	cancel()
}

func runGame(ctx context.Context, a *app.App, screen tcell.Screen) {
	defer screen.Fini()
	if err := a.Run(ctx, screen); err != nil {
		log.Printf("Game stopped: %v", err)
	}
}

func trackHighScore(ctx context.Context, a *app.App, t *tray.Tray) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetHighScore(a.Status().HighScore)
		}
	}
}

// openLog opens ~/.superimpose/superimpose.log for appending.
func openLog() (*os.File, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".superimpose")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return os.OpenFile(filepath.Join(dir, "superimpose.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open %s: %v", url, err)
	}
}

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
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	fmt.Println("Mudra - Sign Language Glove")

	configPath := flag.String("config", "", "path to YAML configuration")
	simulated := flag.Bool("sim", false, "use the simulated glove instead of the serial link")
	useTray := flag.Bool("tray", false, "show the system tray menu")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *simulated {
		cfg.Glove.Simulated = true
	}
	if *useTray {
		cfg.Tray.Enabled = true
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dbDir := filepath.Join(homeDir, ".mudra")
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "mudra.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()
	fmt.Printf("Using database at %s\n", st.Path())

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	hub := server.NewHub()
	application, err := app.New(cfg, st, hub)
	if err != nil {
		log.Fatalf("Failed to assemble pipeline: %v", err)
	}
	defer application.Close()

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  application,
		Frames:    application.Frames(),
		Hub:       hub,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := application.Run(ctx); err != nil {
			log.Printf("Pipeline failed: %v", err)
		}
		stop()
	}()
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray.Enabled {
		runTray(ctx, stop, application, cfg.Server.Addr)
	} else {
		<-ctx.Done()
	}
	fmt.Println("Shutting down")
}

// runTray wires the tray menu to the pipeline and blocks on the tray event
// loop, which must run on the main goroutine.
func runTray(ctx context.Context, stop func(), application *app.App, addr string) {
	t := tray.New()
	t.OnMute(func(muted bool) {
		mode := "text"
		if muted {
			mode = "silent"
		}
		if err := application.SetOutputMode(mode); err != nil {
			log.Printf("Tray mode switch failed: %v", err)
		}
	})
	t.OnClear(application.ClearTranscript)
	t.OnOpen(func() { openBrowser(dashboardURL(addr)) })
	t.OnQuit(stop)

	// Mirror pipeline state into the menu while the tray runs.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				t.SetStatus(statusLine(application))
				name, _ := application.LastGesture()
				t.SetLastGesture(name)
				t.SetTranscript(application.Transcript())
			}
		}
	}()

	t.Run()
}

func statusLine(application *app.App) string {
	if application.Simulated() {
		return "Running (simulated glove)"
	}
	return "Running (serial glove)"
}

// dashboardURL turns a listen address into something a browser can open.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
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
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/scoreturner/internal/app"
	"github.com/ayusman/scoreturner/internal/dispatch"
	"github.com/ayusman/scoreturner/internal/log"
	"github.com/ayusman/scoreturner/internal/server"
	"github.com/ayusman/scoreturner/internal/store"
	"github.com/ayusman/scoreturner/internal/tray"
)

type serveOptions struct {
	addr   string
	camera int
	pages  int
	noTray bool
}

func newServeCmd(opts *options) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera pipeline, web UI and tray icon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, so)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", "", "Address to listen on (overrides config)")
	cmd.Flags().IntVar(&so.camera, "camera", -1, "Camera device id (overrides config)")
	cmd.Flags().IntVar(&so.pages, "pages", 0, "Page count of the open document (0 = unknown)")
	cmd.Flags().BoolVar(&so.noTray, "no-tray", false, "Do not show the tray icon")
	return cmd
}

func runServe(cmd *cobra.Command, opts *options, so *serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if so.addr != "" {
		cfg.ListenAddr = so.addr
	}
	if so.camera >= 0 {
		cfg.CameraID = so.camera
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a, err := app.New(app.Config{
		Store:           st,
		PluginDir:       cfg.PluginDir,
		CameraID:        cfg.CameraID,
		MotionThresh:    cfg.MotionThreshold,
		PluginTimeoutMs: cfg.PluginTimeoutMs,
		DetectorScript:  cfg.DetectorScript,
		PageCount:       so.pages,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}

	// The web UI stays usable without a camera.
	if err := a.Start(); err != nil {
		log.Error("camera unavailable, gestures will not be detected", "camera", cfg.CameraID, "error", err)
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray && !so.noTray {
		return serveWithTray(ctx, stop, srv, a, cfg.ListenAddr)
	}
	return srv.Run(ctx, cfg.ListenAddr)
}

// serveWithTray runs the tray on the calling goroutine, as the platform
// requires, and the HTTP server alongside it.
func serveWithTray(ctx context.Context, cancel context.CancelFunc, srv *server.Server, a *app.App, addr string) error {
	t := tray.New(a.Status().Enabled)
	t.OnToggle(func(enabled bool) {
		if _, err := a.SetGesturesEnabled(enabled); err != nil {
			log.Error("failed to toggle gestures", "error", err)
		}
	})
	t.OnRecalibrate(a.Recalibrate)
	t.OnSettings(func() { openBrowser(settingsURL(addr)) })
	t.OnQuit(cancel)

	page, count := a.Pager().Snapshot()
	t.SetPage(page, count)
	unsubscribe := a.Dispatcher().Subscribe(func(r dispatch.Result) {
		t.SetLastGesture(r.Event.Kind)
		t.SetPage(r.Page, r.PageCount)
		t.SetEnabled(a.Status().Enabled)
	})
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
		t.Quit()
	}()

	t.Run()
	cancel()

	err := <-errCh
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
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
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and dataDir/web, and returns the
// first existing directory or an empty string.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

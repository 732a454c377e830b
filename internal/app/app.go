// Package app wires the camera, face detector, gesture session and command
// dispatcher into the scoreturner runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/scoreturner/internal/capture"
	"github.com/ayusman/scoreturner/internal/clock"
	"github.com/ayusman/scoreturner/internal/detector"
	"github.com/ayusman/scoreturner/internal/dispatch"
	"github.com/ayusman/scoreturner/internal/log"
	"github.com/ayusman/scoreturner/internal/pager"
	"github.com/ayusman/scoreturner/internal/plugin"
	"github.com/ayusman/scoreturner/internal/session"
	"github.com/ayusman/scoreturner/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = capture.DefaultFPS
	// ActiveFPS is the frame rate while the scene is moving.
	ActiveFPS = capture.ActiveFPS
	// DefaultPluginTimeoutMs bounds a single plugin action.
	DefaultPluginTimeoutMs = 5000
	// EventHistoryLimit is how many fired gestures are kept across restarts.
	EventHistoryLimit = 1000
)

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store
	PluginDir       string
	CameraID        int
	MotionThresh    float64
	PluginTimeoutMs int
	DetectorScript  string

	// PageCount seeds the pager. Zero means the document length is unknown.
	PageCount int

	// Camera replaces the gocv camera. Used by tests.
	Camera capture.Camera
	// Clock stamps frames and session time. Defaults to a monotonic clock.
	Clock clock.Clock
}

// App is the main application that turns camera frames into page turns.
type App struct {
	config     Config
	clock      clock.Clock
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	session    *session.Session
	dispatcher *dispatch.Dispatcher
	pluginMgr  *plugin.Manager
	preview    *Preview

	settingsMu sync.Mutex
	mu         sync.RWMutex
	stopCh     chan struct{}
	done       chan struct{}
}

// New creates an App. Gesture settings and bindings are read from the store.
func New(config Config) (*App, error) {
	if config.Store == nil {
		return nil, errors.New("app: store is required")
	}

	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% pixel change
	}
	timeoutMs := config.PluginTimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultPluginTimeoutMs
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.NewMonotonic()
	}

	settings, err := config.Store.Settings().Load()
	if err != nil {
		return nil, fmt.Errorf("app: load settings: %w", err)
	}
	if err := config.Store.Events().Prune(EventHistoryLimit); err != nil {
		log.Warn("failed to prune gesture history", "error", err)
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID, clk)
	}

	pluginMgr := plugin.NewManager(config.PluginDir)

	a := &App{
		config:    config,
		clock:     clk,
		camera:    camera,
		motion:    capture.NewMotionDetector(motionThreshold),
		session:   session.New(settings, clk),
		pluginMgr: pluginMgr,
		preview:   NewPreview(),
	}
	a.dispatcher = dispatch.New(
		config.Store.Bindings(),
		config.Store.Events(),
		pager.New(config.PageCount),
		pluginMgr,
		plugin.NewExecutor(timeoutMs),
	)

	// Prefer the face service, fall back to the mock detector
	detCfg := detector.DefaultConfig()
	detCfg.Script = config.DetectorScript
	if svc, err := detector.NewServiceDetector(detCfg); err == nil {
		a.detector = svc
		log.Info("using face service detection")
	} else {
		log.Warn("face service not available, using mock detector", "error", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetDetector sets the face detector implementation to use. The previous
// detector is closed.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	prev := a.detector
	a.detector = d
	a.mu.Unlock()

	if prev != nil && prev != d {
		if err := prev.Close(); err != nil {
			log.Warn("error closing detector", "error", err)
		}
	}
}

// Detector returns the face detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// SetGesturesEnabled turns gesture input on or off and persists the choice.
// Enabling always starts a fresh calibration.
func (a *App) SetGesturesEnabled(enabled bool) (store.Settings, error) {
	s := a.Settings()
	s.UseFaceGestures = enabled
	return a.UpdateSettings(s)
}

// UpdateSettings clamps, persists and applies gesture settings.
func (a *App) UpdateSettings(s store.Settings) (store.Settings, error) {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()

	saved, err := a.config.Store.Settings().Save(s)
	if err != nil {
		return store.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	a.session.UpdateSettings(saved)
	return saved, nil
}

// Settings returns the settings the session is running with.
func (a *App) Settings() store.Settings {
	return a.session.Settings()
}

// Recalibrate captures a new head pitch baseline from the next face.
func (a *App) Recalibrate() {
	a.session.Recalibrate()
}

// Status returns the session status.
func (a *App) Status() session.Status {
	return a.session.Status()
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Info("detection pipeline started", "camera", a.config.CameraID)
	return nil
}

// Stop halts the pipeline and releases the camera. It waits for an in-flight
// frame to finish.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.camera.Close(); err != nil {
		log.Warn("error closing camera", "error", err)
	}
	a.motion.Reset()

	log.Info("detection pipeline stopped")
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()
	a.preview.Close()

	if d := a.Detector(); d != nil {
		return d.Close()
	}
	return nil
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// HandleFrame runs one captured frame through motion, detection, the session
// and, when a gesture fires, the dispatcher. It does not close the frame.
func (a *App) HandleFrame(ctx context.Context, frame *capture.Frame) (capture.Motion, *dispatch.Result, error) {
	motion := a.motion.Detect(frame)
	a.preview.Offer(frame)

	if !a.session.Enabled() {
		return motion, nil, nil
	}

	faces, err := a.Detector().Detect(frame.Mat)
	if err != nil {
		return motion, nil, fmt.Errorf("detect faces: %w", err)
	}

	ev := a.session.Process(faces, frame.CapturedMs)
	if ev == nil {
		return motion, nil, nil
	}

	res, err := a.dispatcher.Handle(ctx, *ev)
	return motion, &res, err
}

// Session returns the gesture session.
func (a *App) Session() *session.Session {
	return a.session
}

// Dispatcher returns the command dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Pager returns the page tracker moved by gestures.
func (a *App) Pager() *pager.Pager {
	return a.dispatcher.Pager()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Preview returns the latest-frame buffer used by the MJPEG stream.
func (a *App) Preview() *Preview {
	return a.preview
}

// Store returns the backing store.
func (a *App) Store() *store.Store {
	return a.config.Store
}

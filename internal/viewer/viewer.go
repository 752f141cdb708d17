// Package viewer implements the interactive fractal viewer loop.
package viewer

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/mancet/internal/config"
	"github.com/Faultbox/mancet/internal/engine/camera"
	"github.com/Faultbox/mancet/internal/engine/debug"
	"github.com/Faultbox/mancet/internal/engine/framebuffer"
	"github.com/Faultbox/mancet/internal/engine/gpu"
	"github.com/Faultbox/mancet/internal/engine/input"
	"github.com/Faultbox/mancet/internal/engine/quad"
	"github.com/Faultbox/mancet/internal/engine/shader"
	"github.com/Faultbox/mancet/internal/engine/window"
	"github.com/Faultbox/mancet/internal/logger"
)

// Uniform names the fragment shader reads.
const (
	UniformWindowDimensions = "u_window_dimensions"
	UniformOffset           = "u_offset"
	UniformScale            = "u_scale"
	UniformIterations       = "u_iterations"
)

// Viewer owns the window, the GPU resources and the view state.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	window  *window.Window
	gl      gpu.GL
	input   *input.Input
	program *shader.Program
	quad    *quad.Quad
	camera  *camera.PlaneCamera
	shots   *debug.ScreenshotCapture

	running bool

	// Drawable size in pixels and the pixels-per-point ratio of the window.
	width, height int
	pixelRatio    float64
	dragging      bool

	shotRequested bool
	pendingShader chan string
	lastPoll      time.Time
	title         string
}

// New creates the window and every GPU resource the viewer needs.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:           cfg,
		log:           logger.Named("viewer"),
		pendingShader: make(chan string, 1),
		pixelRatio:    1,
	}

	v.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Resizable:  cfg.Window.Resizable,
		GLMajor:    cfg.Graphics.GLMajor,
		GLMinor:    cfg.Graphics.GLMinor,
		Debug:      cfg.Graphics.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL loader AFTER the window, since the context must be current
	v.gl, err = gpu.Init()
	if err != nil {
		v.window.Close()
		return nil, err
	}
	if cfg.Graphics.Debug {
		v.gl.EnableDebugOutput()
	}

	c := cfg.Graphics.ClearColor
	v.gl.ClearColor(c[0], c[1], c[2], c[3])
	v.resize()

	v.quad = quad.New()

	v.program, err = shader.New(v.gl, cfg.Shaders.Sources...)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	v.logReport(v.program.Report())
	v.lastPoll = time.Now()

	v.camera = camera.NewPlaneCamera(
		mgl64.Vec2{cfg.View.OffsetX, cfg.View.OffsetY},
		cfg.View.Scale,
		cfg.View.Iterations,
	)
	v.camera.MinScale = cfg.View.MinScale
	v.camera.MaxScale = cfg.View.MaxScale
	v.camera.MaxIterations = cfg.View.MaxIterations
	v.camera.Clamp()

	format, err := debug.ParseFormat(cfg.Screenshot.Format)
	if err != nil {
		v.Close()
		return nil, err
	}
	v.shots = debug.NewScreenshotCapture(cfg.Screenshot.Dir, cfg.Screenshot.Prefix, format)

	v.input = input.New()

	v.log.Info("viewer initialized")
	return v, nil
}

// Run runs the frame loop until the user quits.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		for _, ev := range v.input.Events() {
			v.handleEvent(ev)
		}
		if !v.running {
			break
		}

		// 2. Shader maintenance
		v.pollShaders(now)

		// 3. Render
		v.draw(v.width, v.height, 1)
		if v.shotRequested {
			v.shotRequested = false
			v.screenshot()
		}

		// 4. Present
		v.window.SwapBuffers()
		v.updateTitle()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close releases GPU resources before the context goes away.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.program != nil {
		v.program.Destroy()
	}
	if v.quad != nil {
		v.quad.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		v.resize()

	case input.EventMouseDown:
		if ev.Button == sdl.BUTTON_LEFT {
			v.dragging = true
		}

	case input.EventMouseUp:
		if ev.Button == sdl.BUTTON_LEFT {
			v.dragging = false
		}

	case input.EventMouseMove:
		if v.dragging {
			v.camera.Pan(float64(ev.DeltaX)*v.pixelRatio, float64(ev.DeltaY)*v.pixelRatio)
		}

	case input.EventMouseWheel:
		factor := math.Pow(v.cfg.Controls.ZoomStep, float64(ev.Wheel))
		v.camera.ZoomAt(factor,
			float64(ev.MouseX)*v.pixelRatio, float64(ev.MouseY)*v.pixelRatio,
			float64(v.width), float64(v.height))

	case input.EventKeyDown:
		v.perform(ActionFor(ev))
	}
}

func (v *Viewer) perform(action Action) {
	w, h := float64(v.width), float64(v.height)
	pan := v.cfg.Controls.PanStep
	step := v.cfg.Controls.IterationStep

	switch action {
	case ActionQuit:
		v.running = false
	case ActionReload:
		v.reload()
	case ActionPanLeft:
		v.camera.Pan(pan*w, 0)
	case ActionPanRight:
		v.camera.Pan(-pan*w, 0)
	case ActionPanUp:
		v.camera.Pan(0, pan*h)
	case ActionPanDown:
		v.camera.Pan(0, -pan*h)
	case ActionZoomIn:
		v.camera.ZoomCenter(v.cfg.Controls.ZoomStep, w, h)
	case ActionZoomOut:
		v.camera.ZoomCenter(1/v.cfg.Controls.ZoomStep, w, h)
	case ActionMoreIterations:
		v.camera.AddIterations(step)
	case ActionFewerIterations:
		v.camera.AddIterations(-step)
	case ActionResetView:
		v.camera.Reset()
	case ActionScreenshot:
		v.shotRequested = true
	case ActionOpenShader:
		v.openShaderDialog()
	case ActionSaveView:
		v.saveView()
	}
}

// resize matches the viewport to the drawable after a window size change.
func (v *Viewer) resize() {
	v.width, v.height = v.window.DrawableSize()
	if ww, _ := v.window.GetSize(); ww > 0 {
		v.pixelRatio = float64(v.width) / float64(ww)
	}
	v.gl.Viewport(v.width, v.height)
	v.log.Debug("viewport resized",
		zap.Int("width", v.width),
		zap.Int("height", v.height),
		zap.Float64("pixel_ratio", v.pixelRatio),
	)
}

// draw renders the fractal into the bound target of width x height pixels.
// supersample multiplies the scale so the view matches the window.
func (v *Viewer) draw(width, height int, supersample float64) {
	v.gl.Clear()

	offset := v.camera.Offset
	v.program.SetVec2(UniformWindowDimensions, mgl32.Vec2{float32(width), float32(height)})
	v.program.SetVec2(UniformOffset, mgl32.Vec2{float32(offset.X()), float32(offset.Y())})
	v.program.SetFloat(UniformScale, float32(v.camera.Scale*supersample))
	v.program.SetUint32(UniformIterations, v.camera.Iterations)

	v.program.Bind()
	v.quad.Draw()
}

func (v *Viewer) reload() {
	report, err := v.program.Reload()
	if err != nil {
		v.log.Error("shader reload failed", zap.Error(err))
		return
	}
	v.logReport(report)
}

// pollShaders rebuilds on source changes and swaps in dialog selections.
func (v *Viewer) pollShaders(now time.Time) {
	select {
	case path := <-v.pendingShader:
		v.replaceFragment(path)
	default:
	}

	if !v.cfg.Shaders.AutoReload || now.Sub(v.lastPoll) < v.cfg.Shaders.PollInterval {
		return
	}
	v.lastPoll = now
	if v.program.Stale() {
		v.log.Info("shader sources changed, reloading")
		v.reload()
	}
}

// replaceFragment builds a program with a new fragment source and keeps it
// only if it builds cleanly.
func (v *Viewer) replaceFragment(path string) {
	cfg := *v.cfg
	cfg.Shaders.Sources = append([]shader.Source(nil), v.cfg.Shaders.Sources...)
	cfg.SetSource(shader.Fragment, path)

	program, err := shader.New(v.gl, cfg.Shaders.Sources...)
	if err != nil {
		v.log.Error("cannot use fragment shader", zap.String("path", path), zap.Error(err))
		return
	}
	report := program.Report()
	if !report.OK() {
		v.logReport(report)
		v.log.Warn("keeping previous shader program", zap.String("rejected", path))
		program.Destroy()
		return
	}

	v.program.Destroy()
	v.program = program
	v.cfg.Shaders.Sources = cfg.Shaders.Sources
	v.log.Info("fragment shader replaced", zap.String("path", path), zap.Uint32("program", program.ID()))
}

// openShaderDialog asks for a fragment shader without blocking the frame loop.
// The choice is picked up on the main thread by pollShaders.
func (v *Viewer) openShaderDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("GLSL fragment shaders", "glsl", "frag", "fs").
			Filter("All Files", "*").
			Title("Open fragment shader").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog failed", zap.Error(err))
			}
			return
		}

		select {
		case v.pendingShader <- filename:
		default:
			logger.Warn("shader selection dropped, one is already pending", zap.String("path", filename))
		}
	}()
}

// screenshot saves the frame just drawn, or redraws it offscreen at a
// multiple of the window size when supersampling is configured.
func (v *Viewer) screenshot() {
	width, height := v.width, v.height
	var pixels []byte

	if k := v.cfg.Screenshot.Supersample; k > 1 {
		fb, err := framebuffer.New(int32(width*k), int32(height*k))
		if err != nil {
			v.log.Error("screenshot failed", zap.Error(err))
			return
		}
		defer fb.Destroy()

		restore := fb.BindWithViewport()
		width, height = fb.Size()
		v.draw(width, height, float64(k))
		pixels = fb.ReadPixels()
		restore()
	} else {
		pixels = v.gl.ReadPixels(width, height)
	}

	path, err := v.shots.CaptureFromPixels(pixels, width, height)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// saveView stores the current view as the startup view in the config file.
func (v *Viewer) saveView() {
	v.cfg.View.OffsetX = v.camera.Offset.X()
	v.cfg.View.OffsetY = v.camera.Offset.Y()
	v.cfg.View.Scale = v.camera.Scale
	v.cfg.View.Iterations = v.camera.Iterations

	path, err := config.SaveView(v.cfg.View)
	if err != nil {
		v.log.Error("failed to save view", zap.Error(err))
		return
	}
	v.camera.SetHome()
	v.log.Info("view saved", zap.String("path", path))
}

func (v *Viewer) updateTitle() {
	title := fmt.Sprintf("%s | %d iterations | %.4g px/unit | (%.6g, %.6g)",
		v.cfg.Window.Title,
		v.camera.Iterations,
		v.camera.Scale,
		v.camera.Offset.X(), v.camera.Offset.Y(),
	)
	if title != v.title {
		v.title = title
		v.window.SetTitle(title)
	}
}

func (v *Viewer) logReport(report *shader.Report) {
	if err := report.Err(); err != nil {
		v.log.Warn("shader program built with errors",
			zap.Uint32("program", report.Program),
			zap.Int("attached", report.Attached()),
			zap.Int("failed", len(report.Failed())),
			zap.Error(err),
		)
		return
	}
	v.log.Info("shader program ready",
		zap.Uint32("program", report.Program),
		zap.Int("stages", report.Attached()),
	)
}

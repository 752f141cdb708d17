// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/mancet/internal/engine/debug"
	"github.com/Faultbox/mancet/internal/engine/shader"
)

// The GL loader is built against 4.6 core and fails on older contexts.
const (
	MinGLMajor = 4
	MinGLMinor = 6
)

// MaxSupersample bounds the offscreen screenshot size multiplier.
const MaxSupersample = 8

// Config holds all viewer settings.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Shaders    ShadersConfig    `yaml:"shaders"`
	View       ViewConfig       `yaml:"view"`
	Controls   ControlsConfig   `yaml:"controls"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WindowConfig holds window settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Resizable  bool   `yaml:"resizable"`
}

// GraphicsConfig holds OpenGL context settings.
type GraphicsConfig struct {
	GLMajor    int        `yaml:"gl_major"`
	GLMinor    int        `yaml:"gl_minor"`
	Debug      bool       `yaml:"debug"` // debug context + driver message logging
	ClearColor [4]float32 `yaml:"clear_color"`
}

// ShadersConfig lists the program sources, in build order.
type ShadersConfig struct {
	Sources      []shader.Source `yaml:"sources"`
	AutoReload   bool            `yaml:"auto_reload"`
	PollInterval time.Duration   `yaml:"poll_interval"`
}

// ViewConfig holds the initial view and its limits.
type ViewConfig struct {
	OffsetX       float64 `yaml:"offset_x"`
	OffsetY       float64 `yaml:"offset_y"`
	Scale         float64 `yaml:"scale"` // pixels per plane unit
	Iterations    uint32  `yaml:"iterations"`
	MinScale      float64 `yaml:"min_scale"`
	MaxScale      float64 `yaml:"max_scale"`
	MaxIterations uint32  `yaml:"max_iterations"`
}

// ControlsConfig holds input sensitivity.
type ControlsConfig struct {
	ZoomStep      float64 `yaml:"zoom_step"`      // scale factor per wheel notch
	PanStep       float64 `yaml:"pan_step"`       // fraction of the window per arrow key
	IterationStep int     `yaml:"iteration_step"` // iterations per +/- key
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	Format string `yaml:"format"`

	// Supersample renders screenshots offscreen at this multiple of the
	// window size; 1 captures the window as shown.
	Supersample int `yaml:"supersample"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "ManCet GPU",
			Width:      800,
			Height:     600,
			Fullscreen: false,
			VSync:      true,
			Resizable:  true,
		},
		Graphics: GraphicsConfig{
			GLMajor:    4,
			GLMinor:    6,
			Debug:      false,
			ClearColor: [4]float32{0, 0, 0, 1},
		},
		Shaders: ShadersConfig{
			Sources: []shader.Source{
				{Path: "assets/shaders/vertex.glsl", Stage: shader.Vertex},
				{Path: "assets/shaders/fragment.glsl", Stage: shader.Fragment},
			},
			AutoReload:   false,
			PollInterval: 500 * time.Millisecond,
		},
		View: ViewConfig{
			OffsetX:       0,
			OffsetY:       0,
			Scale:         200,
			Iterations:    100,
			MinScale:      10,
			MaxScale:      1e15,
			MaxIterations: 10000,
		},
		Controls: ControlsConfig{
			ZoomStep:      1.1,
			PanStep:       0.1,
			IterationStep: 10,
		},
		Screenshot: ScreenshotConfig{
			Dir:         "screenshots",
			Prefix:      "mancet",
			Format:      "png",
			Supersample: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting the viewer cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Graphics.GLMajor < MinGLMajor || (c.Graphics.GLMajor == MinGLMajor && c.Graphics.GLMinor < MinGLMinor) {
		errs = append(errs, fmt.Errorf("OpenGL %d.%d is too old, the loader needs a %d.%d or newer core profile",
			c.Graphics.GLMajor, c.Graphics.GLMinor, MinGLMajor, MinGLMinor))
	}

	switch n := len(c.Shaders.Sources); {
	case n == 0:
		errs = append(errs, errors.New("no shader sources configured"))
	case n > shader.MaxSources:
		errs = append(errs, fmt.Errorf("%d shader sources configured, at most %d allowed", n, shader.MaxSources))
	}
	for i, src := range c.Shaders.Sources {
		if src.Path == "" {
			errs = append(errs, fmt.Errorf("shader source %d has no path", i))
		}
		if !src.Stage.Valid() {
			errs = append(errs, fmt.Errorf("shader source %d (%s) has no valid stage", i, src.Path))
		}
	}
	if c.Shaders.AutoReload && c.Shaders.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.Shaders.PollInterval))
	}

	if c.View.Scale <= 0 {
		errs = append(errs, fmt.Errorf("view scale must be positive, got %v", c.View.Scale))
	}
	if c.View.MinScale <= 0 || c.View.MaxScale < c.View.MinScale {
		errs = append(errs, fmt.Errorf("invalid scale limits [%v, %v]", c.View.MinScale, c.View.MaxScale))
	}
	if c.View.Iterations == 0 {
		errs = append(errs, errors.New("iterations must be at least 1"))
	}
	if c.View.MaxIterations < c.View.Iterations {
		errs = append(errs, fmt.Errorf("max iterations %d below initial iterations %d", c.View.MaxIterations, c.View.Iterations))
	}

	if c.Controls.ZoomStep <= 1 {
		errs = append(errs, fmt.Errorf("zoom step must be greater than 1, got %v", c.Controls.ZoomStep))
	}
	if c.Controls.PanStep <= 0 {
		errs = append(errs, fmt.Errorf("pan step must be positive, got %v", c.Controls.PanStep))
	}
	if c.Controls.IterationStep <= 0 {
		errs = append(errs, fmt.Errorf("iteration step must be positive, got %d", c.Controls.IterationStep))
	}

	if _, err := debug.ParseFormat(c.Screenshot.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Screenshot.Supersample < 1 || c.Screenshot.Supersample > MaxSupersample {
		errs = append(errs, fmt.Errorf("screenshot supersample must be in [1, %d], got %d", MaxSupersample, c.Screenshot.Supersample))
	}

	return multierr.Combine(errs...)
}

// SetSource points the first source of the given stage at path, or appends a
// new source when the stage is not configured yet.
func (c *Config) SetSource(stage shader.Stage, path string) {
	for i := range c.Shaders.Sources {
		if c.Shaders.Sources[i].Stage == stage {
			c.Shaders.Sources[i].Path = path
			return
		}
	}
	c.Shaders.Sources = append(c.Shaders.Sources, shader.Source{Path: path, Stage: stage})
}

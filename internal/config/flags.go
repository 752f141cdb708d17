package config

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/Faultbox/mancet/internal/engine/shader"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging and an OpenGL debug context")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagIterations  = flag.Uint("iterations", 0, "Initial iteration count")
	flagVertex      = flag.String("vertex", "", "Vertex shader source file")
	flagFragment    = flag.String("fragment", "", "Fragment shader source file")
	flagAutoReload  = flag.Bool("watch", false, "Rebuild the shader program when a source file changes")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// flagArgs returns the positional arguments; replaced in tests.
var flagArgs = flag.Args

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [width height]\n", flag.CommandLine.Name())
		flag.PrintDefaults()
	}
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the path given to --write-config, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// parseSize parses the optional positional "width height" pair.
// Fewer than two arguments means no override.
func parseSize(args []string) (width, height int, ok bool, err error) {
	if len(args) < 2 {
		return 0, 0, false, nil
	}
	width, err = strconv.Atoi(args[0])
	if err != nil || width <= 0 {
		return 0, 0, false, fmt.Errorf("invalid width %q", args[0])
	}
	height, err = strconv.Atoi(args[1])
	if err != nil || height <= 0 {
		return 0, 0, false, fmt.Errorf("invalid height %q", args[1])
	}
	return width, height, true, nil
}

// applyFlags applies CLI overrides to the config. Named flags win over the
// positional size.
func applyFlags(cfg *Config) error {
	width, height, ok, err := parseSize(flagArgs())
	if err != nil {
		return err
	}
	if ok {
		cfg.Window.Width = width
		cfg.Window.Height = height
	}

	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Graphics.Debug = true
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagIterations > 0 {
		cfg.View.Iterations = uint32(*flagIterations)
		if cfg.View.MaxIterations < cfg.View.Iterations {
			cfg.View.MaxIterations = cfg.View.Iterations
		}
	}
	if *flagAutoReload {
		cfg.Shaders.AutoReload = true
	}
	if *flagVertex != "" {
		cfg.SetSource(shader.Vertex, *flagVertex)
	}
	if *flagFragment != "" {
		cfg.SetSource(shader.Fragment, *flagFragment)
	}
	return nil
}

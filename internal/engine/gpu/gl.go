// Package gpu implements the rendering calls the viewer needs on top of
// OpenGL 4.6 core.
package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mancet/internal/engine/shader"
	"github.com/Faultbox/mancet/internal/logger"
)

// GL issues calls against the current OpenGL context.
// Init must have succeeded before any other method is used.
type GL struct{}

var _ shader.Device = GL{}

// Info describes the driver behind the current context.
type Info struct {
	Version  string
	Renderer string
	Vendor   string
	GLSL     string
}

// Init loads the OpenGL function pointers for the current context.
// IMPORTANT: must be called AFTER the context is created and made current.
func Init() (GL, error) {
	if err := gl.Init(); err != nil {
		return GL{}, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	info := GL{}.Info()
	logger.Info("OpenGL initialized",
		zap.String("version", info.Version),
		zap.String("renderer", info.Renderer),
		zap.String("vendor", info.Vendor),
		zap.String("glsl", info.GLSL),
	)
	return GL{}, nil
}

// Info queries the driver strings.
func (GL) Info() Info {
	return Info{
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		GLSL:     gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
}

var stageEnums = map[shader.Stage]uint32{
	shader.Vertex:         gl.VERTEX_SHADER,
	shader.Fragment:       gl.FRAGMENT_SHADER,
	shader.Geometry:       gl.GEOMETRY_SHADER,
	shader.TessControl:    gl.TESS_CONTROL_SHADER,
	shader.TessEvaluation: gl.TESS_EVALUATION_SHADER,
	shader.Compute:        gl.COMPUTE_SHADER,
}

func (GL) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (GL) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

// CreateShader returns 0 for an unknown stage, which GL treats as an
// invalid name in every later call.
func (GL) CreateShader(stage shader.Stage) uint32 {
	enum, ok := stageEnums[stage]
	if !ok {
		logger.Error("unsupported shader stage", zap.Stringer("stage", stage))
		return 0
	}
	return gl.CreateShader(enum)
}

func (GL) CompileShader(s uint32, source string) error {
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csource, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		return statusError("compile failed", logLen, func(buf *uint8) {
			gl.GetShaderInfoLog(s, logLen, nil, buf)
		})
	}
	return nil
}

func (GL) AttachShader(program, s uint32) {
	gl.AttachShader(program, s)
}

func (GL) DeleteShader(s uint32) {
	gl.DeleteShader(s)
}

func (g GL) LinkProgram(program uint32) error {
	gl.LinkProgram(program)
	return g.programStatus(program, gl.LINK_STATUS, "link failed")
}

func (g GL) ValidateProgram(program uint32) error {
	gl.ValidateProgram(program)
	return g.programStatus(program, gl.VALIDATE_STATUS, "validation failed")
}

func (GL) programStatus(program, pname uint32, msg string) error {
	var status int32
	gl.GetProgramiv(program, pname, &status)
	if status != gl.FALSE {
		return nil
	}

	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	return statusError(msg, logLen, func(buf *uint8) {
		gl.GetProgramInfoLog(program, logLen, nil, buf)
	})
}

// statusError builds an error from a driver info log of logLen bytes.
func statusError(msg string, logLen int32, read func(*uint8)) error {
	if logLen <= 1 {
		return errors.New(msg)
	}
	buf := make([]uint8, logLen)
	read(&buf[0])
	return fmt.Errorf("%s: %s", msg, strings.TrimRight(string(buf), "\x00\n "))
}

func (GL) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (GL) Uniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (GL) Uniform1ui(location int32, v uint32) {
	gl.Uniform1ui(location, v)
}

func (GL) Uniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (GL) Uniform2f(location int32, x, y float32) {
	gl.Uniform2f(location, x, y)
}

// Viewport sets the viewport to cover a width x height drawable.
func (GL) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ClearColor sets the color used by Clear.
func (GL) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

// Clear clears the color buffer.
func (GL) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// ReadPixels reads the back buffer as tightly packed RGBA rows,
// bottom row first.
func (GL) ReadPixels(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels
}

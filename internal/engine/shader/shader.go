// Package shader builds GPU shader programs from source files and sets their
// uniforms.
//
// A Program owns exactly one GPU program object. Reload rebuilds it from the
// same sources in place; stages whose files cannot be read are skipped and
// the rest of the program is still built. Every build is described by a Report.
package shader

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/mancet/internal/logger"
)

// MaxSources is the largest number of stages a Program can be built from.
const MaxSources = 3

var (
	ErrNoSources      = errors.New("shader: no sources")
	ErrTooManySources = errors.New("shader: too many sources")
	ErrDestroyed      = errors.New("shader: program destroyed")
	ErrInvalidStage   = errors.New("shader: invalid stage")
)

// Program is a GPU program assembled from an ordered list of sources.
// It is not safe for concurrent use.
type Program struct {
	device    Device
	sources   []Source
	id        uint32
	destroyed bool

	uniforms *uniformCache
	report   *Report
	modTimes []time.Time
}

// New validates sources, copies them and performs the initial build.
// The returned error only reports invalid arguments; build failures are
// available from Report.
func New(device Device, sources ...Source) (*Program, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if len(sources) > MaxSources {
		return nil, ErrTooManySources
	}
	for i, src := range sources {
		if !src.Stage.Valid() {
			return nil, fmt.Errorf("%w: source %d (%s) has stage %d", ErrInvalidStage, i, src.Path, uint8(src.Stage))
		}
	}

	p := &Program{
		device:   device,
		sources:  append([]Source(nil), sources...),
		uniforms: newUniformCache(),
	}
	if _, err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the GPU program handle, 0 if none is allocated.
func (p *Program) ID() uint32 {
	return p.id
}

// Sources returns a copy of the sources the program is built from.
func (p *Program) Sources() []Source {
	return append([]Source(nil), p.sources...)
}

// Report returns the report of the most recent build.
func (p *Program) Report() *Report {
	return p.report
}

// Reload deletes the current GPU program, if any, and builds a new one from
// the sources. Uniform locations resolved before the call are invalid after it.
func (p *Program) Reload() (*Report, error) {
	if p.destroyed {
		return nil, ErrDestroyed
	}

	if p.id != 0 {
		p.device.DeleteProgram(p.id)
		p.id = 0
	}

	p.id = p.device.CreateProgram()
	report := &Report{
		Program: p.id,
		Stages:  make([]StageReport, 0, len(p.sources)),
	}
	modTimes := make([]time.Time, len(p.sources))

	for i, src := range p.sources {
		modTimes[i] = modTime(src.Path)
		report.Stages = append(report.Stages, p.buildStage(src))
	}

	report.LinkErr = p.device.LinkProgram(p.id)
	if report.LinkErr != nil {
		logger.Error("shader link failed",
			zap.Uint32("program", p.id),
			zap.Error(report.LinkErr),
		)
	}
	report.ValidateErr = p.device.ValidateProgram(p.id)
	if report.ValidateErr != nil {
		logger.Warn("shader validation failed",
			zap.Uint32("program", p.id),
			zap.Error(report.ValidateErr),
		)
	}

	p.uniforms.reset(p.id)
	p.report = report
	p.modTimes = modTimes

	logger.Debug("shader program built",
		zap.Uint32("program", p.id),
		zap.Int("stages", report.Attached()),
		zap.Int("sources", len(p.sources)),
	)

	return report, nil
}

// buildStage reads, compiles and attaches one source. The intermediate stage
// object is released right away; the program keeps the attachment.
func (p *Program) buildStage(src Source) StageReport {
	text, err := ReadSource(src.Path)
	if err != nil {
		logger.Error("shader source skipped",
			zap.String("path", src.Path),
			zap.Stringer("stage", src.Stage),
			zap.Error(err),
		)
		return StageReport{Source: src, Err: err}
	}

	stage := p.device.CreateShader(src.Stage)
	if stage == 0 {
		err := fmt.Errorf("create %s shader failed", src.Stage)
		logger.Error("shader source skipped", zap.String("path", src.Path), zap.Error(err))
		return StageReport{Source: src, Err: err}
	}
	compileErr := p.device.CompileShader(stage, text)
	if compileErr != nil {
		logger.Error("shader compile failed",
			zap.String("path", src.Path),
			zap.Stringer("stage", src.Stage),
			zap.Error(compileErr),
		)
	}
	p.device.AttachShader(p.id, stage)
	p.device.DeleteShader(stage)

	return StageReport{Source: src, Attached: true, Err: compileErr}
}

// Stale reports whether any source file changed on disk since the last build.
func (p *Program) Stale() bool {
	if p.destroyed {
		return false
	}
	for i, src := range p.sources {
		if !modTime(src.Path).Equal(p.modTimes[i]) {
			return true
		}
	}
	return false
}

// Destroy releases the GPU program. The Program must not be used afterwards,
// except that calling Destroy again is a no-op.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	if p.id != 0 {
		p.device.DeleteProgram(p.id)
	}
	p.id = 0
	p.destroyed = true
	p.uniforms.reset(0)
}

// Bind makes the program current for subsequent draw calls.
func (p *Program) Bind() {
	p.device.UseProgram(p.id)
}

// Unbind clears the current program.
func (p *Program) Unbind() {
	p.device.UseProgram(0)
}

// Location resolves a uniform name. The second result is false when the
// program has no active uniform of that name.
func (p *Program) Location(name string) (int32, bool) {
	if p.id == 0 {
		return -1, false
	}
	if loc, ok := p.uniforms.lookup(name); ok {
		return loc, loc >= 0
	}

	loc := p.device.UniformLocation(p.id, name)
	p.uniforms.store(name, loc)
	if loc < 0 {
		logger.Warn("uniform not found",
			zap.Uint32("program", p.id),
			zap.String("name", name),
		)
		return -1, false
	}
	return loc, true
}

// SetInt32 sets an int uniform. Missing uniforms are skipped.
func (p *Program) SetInt32(name string, v int32) {
	p.Bind()
	if loc, ok := p.Location(name); ok {
		p.device.Uniform1i(loc, v)
	}
}

// SetUint32 sets a uint uniform. Missing uniforms are skipped.
func (p *Program) SetUint32(name string, v uint32) {
	p.Bind()
	if loc, ok := p.Location(name); ok {
		p.device.Uniform1ui(loc, v)
	}
}

// SetFloat sets a float uniform. Missing uniforms are skipped.
func (p *Program) SetFloat(name string, v float32) {
	p.Bind()
	if loc, ok := p.Location(name); ok {
		p.device.Uniform1f(loc, v)
	}
}

// SetVec2 sets a vec2 uniform. Missing uniforms are skipped.
func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	p.Bind()
	if loc, ok := p.Location(name); ok {
		p.device.Uniform2f(loc, v.X(), v.Y())
	}
}

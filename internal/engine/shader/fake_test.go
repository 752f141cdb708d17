package shader

import (
	"errors"
	"fmt"
	"strings"
)

var _ Device = (*fakeDevice)(nil)

// fakeDevice records calls the way a GL driver would see them.
type fakeDevice struct {
	nextID uint32

	programs map[uint32]*fakeProgram
	shaders  map[uint32]*fakeShader

	// uniforms lists the active uniforms every linked program exposes.
	uniforms []string
	// unsupported stages make CreateShader return 0.
	unsupported map[Stage]bool

	current        uint32
	locationCalls  int
	invalidDeletes []uint32
	writes         []fakeWrite
}

type fakeProgram struct {
	attached []*fakeShader
	linked   bool
	values   map[int32][]float32
}

type fakeShader struct {
	id       uint32
	stage    Stage
	source   string
	compiled bool
	deleted  bool
}

type fakeWrite struct {
	program  uint32
	location int32
	value    []float32
}

func newFakeDevice(uniforms ...string) *fakeDevice {
	return &fakeDevice{
		programs: make(map[uint32]*fakeProgram),
		shaders:  make(map[uint32]*fakeShader),
		uniforms: uniforms,
	}
}

func (d *fakeDevice) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) CreateProgram() uint32 {
	id := d.id()
	d.programs[id] = &fakeProgram{values: make(map[int32][]float32)}
	return id
}

func (d *fakeDevice) DeleteProgram(program uint32) {
	if _, ok := d.programs[program]; !ok {
		d.invalidDeletes = append(d.invalidDeletes, program)
		return
	}
	delete(d.programs, program)
	if d.current == program {
		d.current = 0
	}
}

func (d *fakeDevice) CreateShader(stage Stage) uint32 {
	if d.unsupported[stage] {
		return 0
	}
	id := d.id()
	d.shaders[id] = &fakeShader{id: id, stage: stage}
	return id
}

func (d *fakeDevice) CompileShader(shader uint32, source string) error {
	s := d.shaders[shader]
	s.source = source
	if strings.Contains(source, "#error") {
		return errors.New("0:1(1): error: #error directive")
	}
	s.compiled = true
	return nil
}

func (d *fakeDevice) AttachShader(program, shader uint32) {
	d.programs[program].attached = append(d.programs[program].attached, d.shaders[shader])
}

func (d *fakeDevice) DeleteShader(shader uint32) {
	d.shaders[shader].deleted = true
}

func (d *fakeDevice) LinkProgram(program uint32) error {
	p := d.programs[program]
	if len(p.attached) == 0 {
		return errors.New("no shaders attached")
	}
	for _, s := range p.attached {
		if !s.compiled {
			return fmt.Errorf("%s shader not compiled", s.stage)
		}
	}
	p.linked = true
	return nil
}

func (d *fakeDevice) ValidateProgram(program uint32) error {
	if !d.programs[program].linked {
		return errors.New("program not linked")
	}
	return nil
}

func (d *fakeDevice) UseProgram(program uint32) {
	d.current = program
}

func (d *fakeDevice) UniformLocation(program uint32, name string) int32 {
	d.locationCalls++
	p, ok := d.programs[program]
	if !ok || !p.linked {
		return -1
	}
	for i, u := range d.uniforms {
		if u == name {
			return int32(i)
		}
	}
	return -1
}

func (d *fakeDevice) write(location int32, value ...float32) {
	d.writes = append(d.writes, fakeWrite{program: d.current, location: location, value: value})
	if p, ok := d.programs[d.current]; ok {
		p.values[location] = value
	}
}

func (d *fakeDevice) Uniform1i(location int32, v int32) { d.write(location, float32(v)) }

func (d *fakeDevice) Uniform1ui(location int32, v uint32) { d.write(location, float32(v)) }

func (d *fakeDevice) Uniform1f(location int32, v float32) { d.write(location, v) }

func (d *fakeDevice) Uniform2f(location int32, x, y float32) { d.write(location, x, y) }

// attachedStages returns the stages attached to program, in order.
func (d *fakeDevice) attachedStages(program uint32) []Stage {
	var stages []Stage
	for _, s := range d.programs[program].attached {
		stages = append(stages, s.stage)
	}
	return stages
}

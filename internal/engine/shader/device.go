package shader

// Device is the subset of the rendering API a Program needs.
// Every call must happen on the thread that owns the current GL context.
type Device interface {
	CreateProgram() uint32
	DeleteProgram(program uint32)

	CreateShader(stage Stage) uint32
	// CompileShader uploads source and compiles it. A non-nil error carries
	// the driver's info log.
	CompileShader(shader uint32, source string) error
	AttachShader(program, shader uint32)
	DeleteShader(shader uint32)

	LinkProgram(program uint32) error
	ValidateProgram(program uint32) error
	UseProgram(program uint32)

	// UniformLocation returns -1 when the program has no active uniform name.
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform1ui(location int32, v uint32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
}

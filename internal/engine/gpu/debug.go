package gpu

import (
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/mancet/internal/logger"
)

// Driver message IDs that are pure noise on NVIDIA drivers
// (buffer placement hints, texture state notes).
var ignoredDebugIDs = map[uint32]bool{
	131169: true,
	131185: true,
	131218: true,
	131204: true,
}

// EnableDebugOutput routes driver debug messages into the log. It requires a
// debug context; on other contexts the driver may stay silent.
func (GL) EnableDebugOutput() {
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(debugMessage, nil)
	gl.DebugMessageControl(gl.DONT_CARE, gl.DONT_CARE, gl.DONT_CARE, 0, nil, true)
	logger.Debug("OpenGL debug output enabled")
}

func debugMessage(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	if ignoredDebugIDs[id] {
		return
	}

	fields := []zap.Field{
		zap.Uint32("id", id),
		zap.String("source", debugSourceName(source)),
		zap.String("type", debugTypeName(gltype)),
		zap.String("severity", debugSeverityName(severity)),
	}

	switch {
	case gltype == gl.DEBUG_TYPE_ERROR || severity == gl.DEBUG_SEVERITY_HIGH:
		logger.Error(message, fields...)
	case severity == gl.DEBUG_SEVERITY_MEDIUM:
		logger.Warn(message, fields...)
	case severity == gl.DEBUG_SEVERITY_LOW:
		logger.Info(message, fields...)
	default:
		logger.Debug(message, fields...)
	}
}

func debugSourceName(source uint32) string {
	switch source {
	case gl.DEBUG_SOURCE_API:
		return "api"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		return "window_system"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		return "shader_compiler"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		return "third_party"
	case gl.DEBUG_SOURCE_APPLICATION:
		return "application"
	case gl.DEBUG_SOURCE_OTHER:
		return "other"
	}
	return "unknown"
}

func debugTypeName(gltype uint32) string {
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		return "error"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "deprecated_behavior"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "undefined_behavior"
	case gl.DEBUG_TYPE_PORTABILITY:
		return "portability"
	case gl.DEBUG_TYPE_PERFORMANCE:
		return "performance"
	case gl.DEBUG_TYPE_MARKER:
		return "marker"
	case gl.DEBUG_TYPE_PUSH_GROUP:
		return "push_group"
	case gl.DEBUG_TYPE_POP_GROUP:
		return "pop_group"
	case gl.DEBUG_TYPE_OTHER:
		return "other"
	}
	return "unknown"
}

func debugSeverityName(severity uint32) string {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		return "high"
	case gl.DEBUG_SEVERITY_MEDIUM:
		return "medium"
	case gl.DEBUG_SEVERITY_LOW:
		return "low"
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		return "notification"
	}
	return "unknown"
}

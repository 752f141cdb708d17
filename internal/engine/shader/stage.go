package shader

import (
	"fmt"
	"strings"
)

// Stage identifies the pipeline stage a source file is compiled for.
type Stage uint8

const (
	Vertex Stage = iota + 1
	Fragment
	Geometry
	TessControl
	TessEvaluation
	Compute
)

var stageNames = map[Stage]string{
	Vertex:         "vertex",
	Fragment:       "fragment",
	Geometry:       "geometry",
	TessControl:    "tess_control",
	TessEvaluation: "tess_evaluation",
	Compute:        "compute",
}

// String returns the config-file name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage parses a stage name. Common file extensions are accepted too.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vert", "vs":
		return Vertex, nil
	case "fragment", "frag", "fs":
		return Fragment, nil
	case "geometry", "geom", "gs":
		return Geometry, nil
	case "tess_control", "tesc":
		return TessControl, nil
	case "tess_evaluation", "tese":
		return TessEvaluation, nil
	case "compute", "comp", "cs":
		return Compute, nil
	}
	return 0, fmt.Errorf("unknown shader stage %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid shader stage %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	stage, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

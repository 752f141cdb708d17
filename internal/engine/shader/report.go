package shader

import (
	"fmt"

	"go.uber.org/multierr"
)

// StageReport is the outcome of building one Source.
type StageReport struct {
	Source Source
	// Attached is true when the stage object was attached to the program,
	// even if it failed to compile.
	Attached bool
	Err      error
}

// Report describes a single build of a Program.
type Report struct {
	Program     uint32
	Stages      []StageReport
	LinkErr     error
	ValidateErr error
}

// Attached returns the number of stages attached to the program.
func (r *Report) Attached() int {
	n := 0
	for _, s := range r.Stages {
		if s.Attached {
			n++
		}
	}
	return n
}

// Failed returns the stages that could not be read or compiled.
func (r *Report) Failed() []StageReport {
	var failed []StageReport
	for _, s := range r.Stages {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// OK reports whether every stage built and the program linked and validated.
func (r *Report) OK() bool {
	return r.Err() == nil
}

// Err combines every failure of the build into one error, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, s := range r.Stages {
		if s.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.Source, s.Err))
		}
	}
	if r.LinkErr != nil {
		err = multierr.Append(err, fmt.Errorf("link: %w", r.LinkErr))
	}
	if r.ValidateErr != nil {
		err = multierr.Append(err, fmt.Errorf("validate: %w", r.ValidateErr))
	}
	return err
}

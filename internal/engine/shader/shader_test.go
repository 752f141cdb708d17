package shader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	minimalVertex = `#version 460 core
layout (location = 0) in vec2 a_position;
void main() { gl_Position = vec4(a_position, 0.0, 1.0); }
`
	minimalFragment = `#version 460 core
out vec4 o_color;
uniform float u_scale;
void main() { o_color = vec4(u_scale); }
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func vertexAndFragment(t *testing.T) []Source {
	t.Helper()
	dir := t.TempDir()
	return []Source{
		{Path: writeFile(t, dir, "vertex.glsl", minimalVertex), Stage: Vertex},
		{Path: writeFile(t, dir, "fragment.glsl", minimalFragment), Stage: Fragment},
	}
}

func TestNewValidatesSources(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fragment.glsl", minimalFragment)
	src := Source{Path: path, Stage: Fragment}

	tests := []struct {
		name    string
		sources []Source
		want    error
	}{
		{"empty", nil, ErrNoSources},
		{"over limit", []Source{src, src, src, src}, ErrTooManySources},
		{"zero stage", []Source{{Path: path, Stage: 0}}, ErrInvalidStage},
		{"unknown stage", []Source{src, {Path: path, Stage: Stage(42)}}, ErrInvalidStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			p, err := New(dev, tt.sources...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if p != nil {
				t.Error("expected nil program on error")
			}
			if dev.nextID != 0 {
				t.Errorf("expected no GPU objects, %d were created", dev.nextID)
			}
		})
	}
}

func TestNewBuildsVertexAndFragment(t *testing.T) {
	dev := newFakeDevice("u_scale")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if p.ID() == 0 {
		t.Fatal("expected a non-zero program id")
	}
	if got := dev.attachedStages(p.ID()); !reflect.DeepEqual(got, []Stage{Vertex, Fragment}) {
		t.Errorf("expected vertex and fragment attached, got %v", got)
	}
	if !dev.programs[p.ID()].linked {
		t.Error("expected program to be linked")
	}
	if err := p.Report().Err(); err != nil {
		t.Errorf("expected clean build, got %v", err)
	}
	for id, s := range dev.shaders {
		if !s.deleted {
			t.Errorf("stage object %d was not released", id)
		}
	}
	if got := dev.shaders[dev.programs[p.ID()].attached[0].id].source; got != minimalVertex {
		t.Errorf("expected vertex source passed through verbatim, got %q", got)
	}
}

func TestNewMissingVertexFile(t *testing.T) {
	dir := t.TempDir()
	sources := []Source{
		{Path: filepath.Join(dir, "missing.glsl"), Stage: Vertex},
		{Path: writeFile(t, dir, "fragment.glsl", minimalFragment), Stage: Fragment},
	}

	dev := newFakeDevice()
	p, err := New(dev, sources...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if p.ID() == 0 {
		t.Fatal("expected a program even with a missing stage")
	}
	if got := dev.attachedStages(p.ID()); !reflect.DeepEqual(got, []Stage{Fragment}) {
		t.Errorf("expected only fragment attached, got %v", got)
	}

	report := p.Report()
	failed := report.Failed()
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed stage, got %d", len(failed))
	}
	if failed[0].Source.Stage != Vertex || failed[0].Attached {
		t.Errorf("unexpected failed stage %+v", failed[0])
	}
	if !errors.Is(failed[0].Err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", failed[0].Err)
	}
	if !strings.Contains(failed[0].Err.Error(), "missing.glsl") {
		t.Errorf("expected error to name the path, got %v", failed[0].Err)
	}
	if report.LinkErr != nil {
		t.Errorf("expected fragment-only program to link, got %v", report.LinkErr)
	}
}

func TestAttachedStagesMatchReadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.glsl", minimalFragment)
	bad := filepath.Join(dir, "nope.glsl")

	tests := []struct {
		name  string
		paths []string
		want  int
	}{
		{"one readable", []string{good}, 1},
		{"one missing", []string{bad}, 0},
		{"two of three", []string{good, bad, good}, 2},
		{"three readable", []string{good, good, good}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sources []Source
			for _, path := range tt.paths {
				sources = append(sources, Source{Path: path, Stage: Fragment})
			}

			dev := newFakeDevice()
			p, err := New(dev, sources...)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if got := len(dev.attachedStages(p.ID())); got != tt.want {
				t.Errorf("expected %d attached stages, got %d", tt.want, got)
			}
			if got := p.Report().Attached(); got != tt.want {
				t.Errorf("report: expected %d attached stages, got %d", tt.want, got)
			}
			if got := len(p.Report().Stages); got != len(tt.paths) {
				t.Errorf("expected one stage report per source, got %d", got)
			}
		})
	}
}

func TestUnsupportedStageIsNotAttached(t *testing.T) {
	srcs := vertexAndFragment(t)
	dev := newFakeDevice()
	dev.unsupported = map[Stage]bool{Vertex: true}

	p, err := New(dev, srcs...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report := p.Report()
	if got := report.Attached(); got != 1 {
		t.Errorf("expected only the fragment stage attached, got %d", got)
	}
	if len(dev.attachedStages(p.ID())) != 1 {
		t.Errorf("expected 1 stage on the program, got %d", len(dev.attachedStages(p.ID())))
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Source.Stage != Vertex {
		t.Fatalf("expected the vertex stage to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Err.Error(), "vertex") {
		t.Errorf("expected stage name in %q", failed[0].Err)
	}
}

func TestReloadReleasesPreviousProgram(t *testing.T) {
	dev := newFakeDevice()
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first := p.ID()

	report, err := p.Reload()
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if p.ID() == first {
		t.Error("expected a fresh program id after reload")
	}
	if report.Program != p.ID() {
		t.Errorf("report program %d does not match id %d", report.Program, p.ID())
	}
	if _, ok := dev.programs[first]; ok {
		t.Error("expected previous program to be deleted")
	}
	if len(dev.programs) != 1 {
		t.Errorf("expected exactly one live program, got %d", len(dev.programs))
	}
	if len(dev.invalidDeletes) != 0 {
		t.Errorf("unexpected deletes of invalid programs: %v", dev.invalidDeletes)
	}
}

func TestReloadUnbuiltProgramDoesNotDelete(t *testing.T) {
	dev := newFakeDevice()
	p := &Program{
		device:   dev,
		sources:  vertexAndFragment(t),
		uniforms: newUniformCache(),
	}

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(dev.invalidDeletes) != 0 {
		t.Errorf("expected no delete for an unbuilt program, got %v", dev.invalidDeletes)
	}
	if p.ID() == 0 {
		t.Error("expected reload to build a program")
	}
}

func TestReloadTwiceBehavesIdentically(t *testing.T) {
	dev := newFakeDevice("u_offset", "u_scale", "u_iterations")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	apply := func() map[int32][]float32 {
		p.SetVec2("u_offset", mgl32.Vec2{-0.5, 0.25})
		p.SetFloat("u_scale", 200)
		p.SetUint32("u_iterations", 100)
		return dev.programs[p.ID()].values
	}

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	firstID := p.ID()
	first := apply()

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	second := apply()

	if p.ID() == firstID {
		t.Error("expected a new handle after the second reload")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical uniform state, got %v and %v", first, second)
	}
}

func TestUniformLocationsCachedPerBuild(t *testing.T) {
	dev := newFakeDevice("u_scale")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p.SetFloat("u_scale", 1)
	p.SetFloat("u_scale", 2)
	p.SetFloat("u_scale", 3)
	if dev.locationCalls != 1 {
		t.Errorf("expected 1 location query, got %d", dev.locationCalls)
	}

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	p.SetFloat("u_scale", 4)
	if dev.locationCalls != 2 {
		t.Errorf("expected reload to invalidate the cache, got %d queries", dev.locationCalls)
	}

	last := dev.writes[len(dev.writes)-1]
	if last.program != p.ID() || last.value[0] != 4 {
		t.Errorf("expected write to the reloaded program, got %+v", last)
	}
}

func TestMissingUniformIsSkipped(t *testing.T) {
	dev := newFakeDevice("u_scale")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p.SetFloat("u_scale", 200)
	before := len(dev.writes)

	p.SetFloat("u_missing", 1)
	p.SetInt32("u_missing", 2)
	p.SetVec2("u_missing", mgl32.Vec2{3, 4})

	if len(dev.writes) != before {
		t.Errorf("expected no writes for a missing uniform, got %d", len(dev.writes)-before)
	}
	if got := dev.programs[p.ID()].values[0]; !reflect.DeepEqual(got, []float32{200}) {
		t.Errorf("expected u_scale untouched, got %v", got)
	}
	if _, ok := p.Location("u_missing"); ok {
		t.Error("expected Location to report the uniform as missing")
	}
	// u_scale once, u_missing once.
	if dev.locationCalls != 2 {
		t.Errorf("expected missing uniform to be queried once, got %d queries", dev.locationCalls)
	}
}

func TestSetUniformBindsProgram(t *testing.T) {
	dev := newFakeDevice("u_iterations")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p.Unbind()
	if dev.current != 0 {
		t.Fatalf("expected no current program, got %d", dev.current)
	}

	p.SetUint32("u_iterations", 64)
	if dev.current != p.ID() {
		t.Errorf("expected program %d current, got %d", p.ID(), dev.current)
	}
	if got := dev.programs[p.ID()].values[0]; !reflect.DeepEqual(got, []float32{64}) {
		t.Errorf("expected u_iterations=64, got %v", got)
	}
}

func TestCompileFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	sources := []Source{
		{Path: writeFile(t, dir, "vertex.glsl", minimalVertex), Stage: Vertex},
		{Path: writeFile(t, dir, "broken.glsl", "#error broken\n"), Stage: Fragment},
	}

	dev := newFakeDevice()
	p, err := New(dev, sources...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	report := p.Report()
	if report.OK() {
		t.Fatal("expected build to fail")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Source.Stage != Fragment || !failed[0].Attached {
		t.Errorf("expected attached failing fragment stage, got %+v", failed)
	}
	if report.LinkErr == nil {
		t.Error("expected link failure to be surfaced")
	}
	if report.ValidateErr == nil {
		t.Error("expected validation failure to be surfaced")
	}

	msg := report.Err().Error()
	for _, want := range []string{"broken.glsl", "link:", "validate:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestDestroy(t *testing.T) {
	dev := newFakeDevice("u_scale")
	p, err := New(dev, vertexAndFragment(t)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p.Destroy()
	if len(dev.programs) != 0 {
		t.Errorf("expected program to be released, %d left", len(dev.programs))
	}
	if p.ID() != 0 {
		t.Errorf("expected id 0 after destroy, got %d", p.ID())
	}

	p.Destroy()
	if len(dev.invalidDeletes) != 0 {
		t.Errorf("second Destroy deleted again: %v", dev.invalidDeletes)
	}

	if _, err := p.Reload(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
	if p.Stale() {
		t.Error("destroyed program should never be stale")
	}

	before := len(dev.writes)
	p.SetFloat("u_scale", 1)
	if len(dev.writes) != before {
		t.Error("expected no writes after destroy")
	}
}

func TestStale(t *testing.T) {
	sources := vertexAndFragment(t)
	dev := newFakeDevice()
	p, err := New(dev, sources...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if p.Stale() {
		t.Fatal("expected fresh program not to be stale")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(sources[1].Path, later, later); err != nil {
		t.Fatalf("failed to touch source: %v", err)
	}
	if !p.Stale() {
		t.Fatal("expected program to be stale after source change")
	}

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if p.Stale() {
		t.Error("expected reload to clear staleness")
	}

	if err := os.Remove(sources[0].Path); err != nil {
		t.Fatalf("failed to remove source: %v", err)
	}
	if !p.Stale() {
		t.Error("expected removed source to make the program stale")
	}
}

func TestSourcesAreCopied(t *testing.T) {
	sources := vertexAndFragment(t)
	p, err := New(newFakeDevice(), sources...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := sources[0].Path
	sources[0].Path = "elsewhere.glsl"
	if got := p.Sources()[0].Path; got != orig {
		t.Errorf("program sources changed with caller slice: %s", got)
	}

	p.Sources()[1].Path = "mutated.glsl"
	if got := p.Sources()[1].Path; got == "mutated.glsl" {
		t.Error("Sources must return a copy")
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"vertex", Vertex, false},
		{"VERT", Vertex, false},
		{"fragment", Fragment, false},
		{"frag", Fragment, false},
		{"geometry", Geometry, false},
		{"tess_control", TessControl, false},
		{"tese", TessEvaluation, false},
		{" compute ", Compute, false},
		{"pixel", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStage(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStageText(t *testing.T) {
	for stage := Vertex; stage <= Compute; stage++ {
		text, err := stage.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) failed: %v", stage, err)
		}
		var back Stage
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) failed: %v", text, err)
		}
		if back != stage {
			t.Errorf("expected %v, got %v", stage, back)
		}
	}

	if _, err := Stage(0).MarshalText(); err == nil {
		t.Error("expected error for the zero stage")
	}
	if got := Stage(42).String(); got != "stage(42)" {
		t.Errorf("unexpected name for unknown stage: %s", got)
	}
}

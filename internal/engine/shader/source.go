package shader

import (
	"fmt"
	"os"
	"time"
)

// Source describes one stage of a program: the file it is read from and the
// stage it is compiled for.
type Source struct {
	Path  string `yaml:"path"`
	Stage Stage  `yaml:"stage"`
}

func (s Source) String() string {
	return s.Stage.String() + ":" + s.Path
}

// ReadSource reads an entire shader source file into memory.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", path, err)
	}
	return string(data), nil
}

// modTime returns the modification time of path, or the zero time if it
// cannot be stat'ed.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

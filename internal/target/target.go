package target

import (
	"fmt"
	"os"
	"path/filepath"
)

type Mode string

const (
	ModeSingle Mode = "single"
	ModeBatch  Mode = "batch"
)

type Input struct {
	Single string // --single flag
	Root   string // --root flag, else the configured root directory
	CWD    string
}

type Resolution struct {
	Mode Mode
	Path string
}

// Resolve picks what a run operates on. --single wins over the root
// directory. Relative paths are resolved against CWD.
func Resolve(in Input) (Resolution, error) {
	cwd := in.CWD
	if cwd == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return Resolution{}, fmt.Errorf("get working directory: %w", err)
		}
	}

	if in.Single != "" {
		path := absolute(cwd, in.Single)
		info, err := os.Stat(path)
		if err != nil {
			return Resolution{}, fmt.Errorf("file not found: %s: %w", in.Single, err)
		}
		if !info.Mode().IsRegular() {
			return Resolution{}, fmt.Errorf("%s is not a regular file", in.Single)
		}
		return Resolution{Mode: ModeSingle, Path: path}, nil
	}

	if in.Root == "" {
		return Resolution{}, fmt.Errorf("no root directory configured")
	}
	path := absolute(cwd, in.Root)
	info, err := os.Stat(path)
	if err != nil {
		return Resolution{}, fmt.Errorf("root directory not found: %s: %w", in.Root, err)
	}
	if !info.IsDir() {
		return Resolution{}, fmt.Errorf("root %s is not a directory", in.Root)
	}
	return Resolution{Mode: ModeBatch, Path: path}, nil
}

func absolute(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

// Package site renders a whole tree of C sources into a mirrored tree of
// HTML pages.
package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/page"
)

// ErrMissingSourceDir is returned when the source root is not a directory.
var ErrMissingSourceDir = errors.New("source directory does not exist")

// Job renders one source file to one page.
type Job struct {
	Source string
	Output string
}

// Plan is the set of directories and pages a build produces.
type Plan struct {
	SourceRoot string
	OutputRoot string
	Dirs       []string // output directories below OutputRoot, parents first
	Jobs       []Job
}

// NewPlan walks srcRoot and maps every tracked source a/b/x.c to
// outRoot/a/b/x.html. Hidden entries and directories named in
// build.skip_dirs are not descended into, and neither is outRoot when it
// lives inside srcRoot.
func NewPlan(srcRoot, outRoot string, build config.BuildConfig) (*Plan, error) {
	info, err := os.Stat(srcRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingSourceDir, srcRoot)
	}

	absOut, err := filepath.Abs(outRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	plan := &Plan{SourceRoot: srcRoot, OutputRoot: outRoot}
	walkErr := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if path == srcRoot {
			return nil
		}

		if d.IsDir() {
			if skipDir(d.Name(), build.SkipDirs) {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && abs == absOut {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(srcRoot, path)
			if err != nil {
				return err
			}
			plan.Dirs = append(plan.Dirs, filepath.Join(outRoot, rel))
			return nil
		}

		if !d.Type().IsRegular() || hidden(d.Name()) || !slices.Contains(build.Extensions, filepath.Ext(path)) {
			return nil
		}
		job, err := jobFor(srcRoot, outRoot, path)
		if err != nil {
			return err
		}
		plan.Jobs = append(plan.Jobs, job)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return plan, nil
}

// Tracks reports whether path is a source the plan rules would pick up.
// It only looks at the path, not the filesystem.
func Tracks(srcRoot, path string, build config.BuildConfig) bool {
	rel, err := filepath.Rel(srcRoot, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, dir := range parts[:len(parts)-1] {
		if skipDir(dir, build.SkipDirs) {
			return false
		}
	}
	name := parts[len(parts)-1]
	return !hidden(name) && slices.Contains(build.Extensions, filepath.Ext(name))
}

func jobFor(srcRoot, outRoot, path string) (Job, error) {
	rel, err := filepath.Rel(srcRoot, path)
	if err != nil {
		return Job{}, fmt.Errorf("mapping %s: %w", path, err)
	}
	out := strings.TrimSuffix(rel, filepath.Ext(rel)) + page.PageExt
	return Job{Source: path, Output: filepath.Join(outRoot, out)}, nil
}

func skipDir(name string, skip []string) bool {
	return hidden(name) || slices.Contains(skip, name)
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/conc/pool"

	"github.com/zjrosen/nativepage/internal/page"
)

// Stale is a page whose file on disk differs from a fresh render.
type Stale struct {
	Source  string
	Output  string
	Missing bool   // no file at Output
	Diff    string // changed lines, "-" for on disk and "+" for fresh
}

// Check renders every tracked source in memory and compares it with the
// page in outRoot. Nothing is written. Stale pages are returned sorted by
// output path.
func (b *Builder) Check(ctx context.Context, srcRoot, outRoot string) ([]Stale, error) {
	plan, err := NewPlan(srcRoot, outRoot, b.cfg.Build)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		stale []Stale
	)
	add := func(s Stale) {
		mu.Lock()
		stale = append(stale, s)
		mu.Unlock()
	}

	indexPath := filepath.Join(outRoot, page.IndexFile)
	if !exists(indexPath) {
		add(Stale{Output: indexPath, Missing: true})
	}

	p := pool.New().WithMaxGoroutines(b.workers).WithContext(ctx).WithFirstError()
	for _, job := range plan.Jobs {
		p.Go(func(ctx context.Context) error {
			s, ok, err := b.checkJob(ctx, job)
			if err != nil {
				return err
			}
			if ok {
				add(s)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(stale, func(x, y Stale) int { return strings.Compare(x.Output, y.Output) })
	return stale, nil
}

func (b *Builder) checkJob(ctx context.Context, job Job) (Stale, bool, error) {
	content, err := os.ReadFile(job.Source)
	if err != nil {
		return Stale{}, false, fmt.Errorf("reading source: %w", err)
	}
	fresh, err := b.pages.Get(ctx, b.digest(job.Source, content), renderInput{Source: job.Source, Content: content}, pageTTL)
	if err != nil {
		return Stale{}, false, err
	}

	current, err := os.ReadFile(job.Output)
	if errors.Is(err, os.ErrNotExist) {
		return Stale{Source: job.Source, Output: job.Output, Missing: true}, true, nil
	}
	if err != nil {
		return Stale{}, false, fmt.Errorf("reading page: %w", err)
	}

	if string(current) == string(fresh.Page) {
		return Stale{}, false, nil
	}
	return Stale{
		Source: job.Source,
		Output: job.Output,
		Diff:   LineDiff(string(current), string(fresh.Page)),
	}, true, nil
}

// LineDiff lists the lines that differ between old and new, prefixed with
// "-" or "+". Unchanged lines are left out.
func LineDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

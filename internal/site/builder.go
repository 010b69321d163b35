package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/nativepage/internal/cachemanager"
	"github.com/zjrosen/nativepage/internal/cformat"
	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/log"
	"github.com/zjrosen/nativepage/internal/page"
	"github.com/zjrosen/nativepage/internal/tracing"
)

const (
	tracerName = "github.com/zjrosen/nativepage/internal/site"

	dirPerm = 0o755

	// pageTTL bounds how long rendered pages stay in memory between builds.
	pageTTL = 10 * time.Minute
)

// Result summarises one build.
type Result struct {
	ID           uuid.UUID
	Rendered     int
	Skipped      int      // unchanged since the previous build by this Builder
	Created      bool     // output root did not exist and was created with an index
	Unterminated []string // sources ending inside a string or escape
	Duration     time.Duration
}

// Builder renders source trees. A Builder remembers what it wrote, so
// repeated builds (watch mode) only re-render changed sources.
type Builder struct {
	cfg     config.Config
	asm     *page.Assembler
	opts    cformat.Options
	workers int
	force   bool

	// fingerprint covers every setting that changes page bytes.
	fingerprint string

	// digests maps output path to the digest of the page last written there.
	digests *cachemanager.InMemoryCacheManager[string, string]
	pages   *cachemanager.ReadThroughCache[string, rendered, renderInput]
}

type rendered struct {
	Page  []byte
	Stats page.Stats
}

type renderInput struct {
	Source  string
	Content []byte
}

// Option configures a Builder.
type Option func(*Builder)

// WithForce re-renders every page, ignoring what earlier builds wrote.
func WithForce(force bool) Option {
	return func(b *Builder) { b.force = force }
}

// WithWorkers overrides build.workers.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg config.Config, opts ...Option) (*Builder, error) {
	asm, err := page.NewAssembler(cfg.Site)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		cfg:         cfg,
		asm:         asm,
		opts:        cfg.RenderOptions(),
		workers:     cfg.WorkerCount(),
		fingerprint: fmt.Sprintf("%+v|%+v", cfg.Site, cfg.Render),
		digests:     cachemanager.NewInMemoryCacheManager[string, string]("digests", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
	for _, opt := range opts {
		opt(b)
	}

	pageCache := cachemanager.NewInMemoryCacheManager[string, rendered]("pages", pageTTL, cachemanager.DefaultCleanupInterval)
	b.pages = cachemanager.NewReadThroughCache[string, rendered, renderInput](pageCache, b.render, b.force)

	return b, nil
}

// Assembler returns the page assembler shared by this Builder.
func (b *Builder) Assembler() *page.Assembler {
	return b.asm
}

// Build renders every tracked source under srcRoot into outRoot.
// Pages render in parallel; a failing page does not stop the others and
// the first error is returned once all have finished.
func (b *Builder) Build(ctx context.Context, srcRoot, outRoot string) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.New()}

	ctx, span := otel.Tracer(tracerName).Start(ctx, tracing.SpanBuild)
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrBuildID, res.ID.String()))

	res, err := b.build(ctx, srcRoot, outRoot, res)
	res.Duration = time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatBuild, "build failed", err, "id", res.ID, "src", srcRoot)
		return res, err
	}

	log.Info(log.CatBuild, "build finished",
		"id", res.ID,
		"rendered", res.Rendered,
		"skipped", res.Skipped,
		"duration", res.Duration)
	return res, nil
}

func (b *Builder) build(ctx context.Context, srcRoot, outRoot string, res Result) (Result, error) {
	plan, err := NewPlan(srcRoot, outRoot, b.cfg.Build)
	if err != nil {
		return res, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(tracing.AttrBuildFiles, len(plan.Jobs)))

	if _, err := os.Stat(outRoot); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(outRoot, dirPerm); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
		if err := page.WriteRedirectIndex(outRoot, b.asm); err != nil {
			return res, err
		}
		res.Created = true
		log.Info(log.CatBuild, "created output directory", "out", outRoot)
	}
	for _, dir := range plan.Dirs {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var renderedCount, skippedCount atomic.Int64
	unterminated := make([]string, len(plan.Jobs))

	p := pool.New().WithMaxGoroutines(b.workers).WithContext(ctx).WithFirstError()
	for i, job := range plan.Jobs {
		p.Go(func(ctx context.Context) error {
			wrote, stats, err := b.runJob(ctx, job)
			if err != nil {
				log.ErrorErr(log.CatBuild, "page failed", err, "src", job.Source)
				return err
			}
			if !wrote {
				skippedCount.Add(1)
				return nil
			}
			renderedCount.Add(1)
			if stats.Unterminated {
				unterminated[i] = job.Source
			}
			return nil
		})
	}
	err = p.Wait()

	res.Rendered = int(renderedCount.Load())
	res.Skipped = int(skippedCount.Load())
	for _, src := range unterminated {
		if src != "" {
			res.Unterminated = append(res.Unterminated, src)
		}
	}
	return res, err
}

// runJob renders one page unless its output already holds the same page.
func (b *Builder) runJob(ctx context.Context, job Job) (bool, page.Stats, error) {
	if err := ctx.Err(); err != nil {
		return false, page.Stats{}, err
	}

	content, err := os.ReadFile(job.Source)
	if err != nil {
		return false, page.Stats{}, fmt.Errorf("reading source: %w", err)
	}

	digest := b.digest(job.Source, content)
	if !b.force {
		if last, ok := b.digests.Get(ctx, job.Output); ok && last == digest && exists(job.Output) {
			log.Debug(log.CatBuild, "unchanged", "src", job.Source)
			return false, page.Stats{}, nil
		}
	}

	out, err := b.pages.GetWithRefresh(ctx, digest, renderInput{Source: job.Source, Content: content}, pageTTL)
	if err != nil {
		return false, page.Stats{}, err
	}
	if err := page.WriteFileAtomic(job.Output, out.Page); err != nil {
		return false, page.Stats{}, err
	}
	b.digests.Set(ctx, job.Output, digest, cachemanager.DefaultExpiration)

	log.Debug(log.CatPage, "wrote page", "src", job.Source, "dst", job.Output, "lines", out.Stats.Lines)
	return true, out.Stats, nil
}

func (b *Builder) render(ctx context.Context, in renderInput) (rendered, error) {
	out, stats, err := page.Render(ctx, in.Source, bytes.NewReader(in.Content), b.asm, b.opts)
	if err != nil {
		return rendered{}, err
	}
	return rendered{Page: out, Stats: stats}, nil
}

// digest identifies the page a source renders to. The page name is part of
// it because it appears in the title.
func (b *Builder) digest(srcPath string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(b.fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(page.PageName(srcPath)))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

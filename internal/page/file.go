package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/nativepage/internal/cformat"
	"github.com/zjrosen/nativepage/internal/log"
	"github.com/zjrosen/nativepage/internal/tracing"
)

const (
	// IndexFile is the redirect page written at the root of a fresh site.
	IndexFile = "index.html"

	// PageExt replaces the source extension in output file names.
	PageExt = ".html"

	filePerm = 0o644
)

var (
	// ErrNotSource is returned for files whose extension is not a source extension.
	ErrNotSource = errors.New("not a source file")

	// ErrMissingSource is returned when the source file does not exist.
	ErrMissingSource = errors.New("source file does not exist")

	// ErrMissingOutputDir is returned when the output directory does not exist.
	ErrMissingOutputDir = errors.New("output directory does not exist")
)

const tracerName = "github.com/zjrosen/nativepage/internal/page"

// Stats describes one rendered source file.
type Stats struct {
	Lines        int
	Unterminated bool // string or escape still open at end of file
}

// CheckSource verifies that path has one of the allowed extensions.
func CheckSource(path string, exts []string) error {
	ext := filepath.Ext(path)
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("%w: must be %s but found extension %q", ErrNotSource, strings.Join(exts, " or "), ext)
	}
	return nil
}

// PageName returns the page name for a source path: its base name without extension.
func PageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RenderSource reads srcPath and returns the complete HTML page.
// Each call uses a fresh formatter state.
func RenderSource(ctx context.Context, srcPath string, asm *Assembler, opts cformat.Options) ([]byte, Stats, error) {
	f, err := os.Open(srcPath) //nolint:gosec // G304: source path chosen by the user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Stats{}, fmt.Errorf("%w: %s", ErrMissingSource, srcPath)
		}
		return nil, Stats{}, fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Render(ctx, srcPath, f, asm, opts)
}

// Render formats the source read from r as the page for srcPath.
// srcPath only names the page; nothing is read from it.
func Render(ctx context.Context, srcPath string, r io.Reader, asm *Assembler, opts cformat.Options) ([]byte, Stats, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, tracing.SpanRenderPage)
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrSourcePath, srcPath))

	page, stats, err := render(srcPath, r, asm, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, Stats{}, err
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrLineCount, stats.Lines),
		attribute.Bool(tracing.AttrOpenString, stats.Unterminated),
	)
	return page, stats, nil
}

func render(srcPath string, src io.Reader, asm *Assembler, opts cformat.Options) ([]byte, Stats, error) {
	r := cformat.NewRenderer(opts)
	lines, err := r.RenderReader(src)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("rendering %s: %w", srcPath, err)
	}

	stats := Stats{Lines: r.Lines(), Unterminated: r.State() != cformat.FormatState{}}
	if stats.Unterminated {
		log.Warn(log.CatRender, "unterminated string or escape at end of file", "src", srcPath)
	}

	var buf bytes.Buffer
	if err := asm.WritePage(&buf, PageName(srcPath), lines); err != nil {
		return nil, Stats{}, err
	}
	return buf.Bytes(), stats, nil
}

// RenderFile renders srcPath and writes the page to dstPath.
// On failure no file is left at dstPath.
func RenderFile(ctx context.Context, srcPath, dstPath string, asm *Assembler, opts cformat.Options) (Stats, error) {
	page, stats, err := RenderSource(ctx, srcPath, asm, opts)
	if err != nil {
		return Stats{}, err
	}
	if err := WriteFileAtomic(dstPath, page); err != nil {
		return Stats{}, err
	}
	log.Debug(log.CatPage, "wrote page", "src", srcPath, "dst", dstPath, "lines", stats.Lines)
	return stats, nil
}

// WriteRedirectIndex writes index.html into root.
func WriteRedirectIndex(root string, asm *Assembler) error {
	var buf bytes.Buffer
	if err := asm.WriteRedirect(&buf); err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(root, IndexFile), buf.Bytes())
}

// WriteFileAtomic writes data to a temp file next to dstPath and renames it
// into place. The temp file is removed on any failure.
func WriteFileAtomic(dstPath string, data []byte) error {
	dir := filepath.Dir(dstPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingOutputDir, dir)
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(dstPath)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, filePerm); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("setting page permissions: %w", err)
	}

	if err := os.Rename(tempPath, dstPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

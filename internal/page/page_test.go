package page

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/nativepage/internal/cformat"
	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/tracing"
)

func newTestAssembler(t *testing.T, name string) *Assembler {
	t.Helper()
	site := config.Defaults().Site
	site.Name = name
	asm, err := NewAssembler(site)
	require.NoError(t, err)
	return asm
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWritePage_Shell(t *testing.T) {
	asm := newTestAssembler(t, "Nick Nadeau")

	var buf bytes.Buffer
	lines := []string{
		`<span class="c-code" style="margin-left: 0px;">x</span>`,
		`<br><span class="c-code" style="margin-left: 25px;">y</span>`,
	}
	require.NoError(t, asm.WritePage(&buf, "hello", lines))

	want := "<!DOCTYPE html>\n<html>\n\t<head>\n" +
		"\t\t<title>Nick Nadeau - hello</title>\n" +
		"\t\t<meta name=\"description\" content=\"Nick Nadeau's hello page.\">\n" +
		"\t\t<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n" +
		"\t\t<link rel=\"stylesheet\" href=\"/style.css\">\n" +
		"\t</head>\n\t<body>\n" +
		"\t\t" + lines[0] + "\n" +
		"\t\t" + lines[1] + "\n" +
		"\t</body>\n</html>\n"
	require.Equal(t, want, buf.String())
}

func TestWritePage_EscapesSiteName(t *testing.T) {
	asm := newTestAssembler(t, `O'Brien "Labs"`)

	var buf bytes.Buffer
	require.NoError(t, asm.WritePage(&buf, "hello", nil))
	require.Contains(t, buf.String(), "<title>O&#39;Brien &#34;Labs&#34; - hello</title>")
	require.Contains(t, buf.String(), `content="O&#39;Brien &#34;Labs&#34;'s hello page."`)
}

func TestWritePage_NoSiteName(t *testing.T) {
	asm := newTestAssembler(t, "")

	var buf bytes.Buffer
	require.NoError(t, asm.WritePage(&buf, "main", nil))
	require.Contains(t, buf.String(), "<title>main</title>")
	require.Contains(t, buf.String(), `content="main page."`)
	require.Contains(t, buf.String(), "\t<body>\n\t</body>")
}

func TestWritePage_EscapesName(t *testing.T) {
	asm := newTestAssembler(t, "")

	var buf bytes.Buffer
	require.NoError(t, asm.WritePage(&buf, "<a>", nil))
	require.Contains(t, buf.String(), "<title>&lt;a&gt;</title>")
}

func TestWriteRedirect(t *testing.T) {
	asm := newTestAssembler(t, "Nick")

	var buf bytes.Buffer
	require.NoError(t, asm.WriteRedirect(&buf))
	require.Contains(t, buf.String(), `<meta http-equiv="refresh" content="0; URL=/about.html">`)
	require.Contains(t, buf.String(), "<title>Nick</title>")
}

func TestCheckSource(t *testing.T) {
	require.NoError(t, CheckSource("dir/main.c", []string{".c"}))
	require.NoError(t, CheckSource("list.h", []string{".c", ".h"}))

	err := CheckSource("main.cpp", []string{".c"})
	require.ErrorIs(t, err, ErrNotSource)
	require.Contains(t, err.Error(), `".cpp"`)

	require.ErrorIs(t, CheckSource("Makefile", []string{".c"}), ErrNotSource)
}

func TestPageName(t *testing.T) {
	require.Equal(t, "main", PageName("src/main.c"))
	require.Equal(t, "list.test", PageName("list.test.c"))
	require.Equal(t, "Makefile", PageName("Makefile"))
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "hello.c", "#include <stdio.h>\nint main() {\n\tputs(\"hi\\n\");\n}\n")
	dst := filepath.Join(dir, "hello.html")

	stats, err := RenderFile(context.Background(), src, dst, newTestAssembler(t, ""), cformat.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 4, stats.Lines)
	require.False(t, stats.Unterminated)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "<title>hello</title>")
	require.Contains(t, out, `<span class="compiler-directive">#include</span> &lt;stdio.h&gt;`)
	require.Contains(t, out, `<span class="c-keyword">int</span> main()`)
	require.Contains(t, out, `style="margin-left: 25px;"`)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestRenderFile_Unterminated(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "open.c", "char *s = \"never closed\n")

	stats, err := RenderFile(context.Background(), src, filepath.Join(dir, "open.html"), newTestAssembler(t, ""), cformat.DefaultOptions())
	require.NoError(t, err)
	require.True(t, stats.Unterminated)
}

func TestRenderFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nope.html")

	_, err := RenderFile(context.Background(), filepath.Join(dir, "nope.c"), dst, newTestAssembler(t, ""), cformat.DefaultOptions())
	require.ErrorIs(t, err, ErrMissingSource)
	require.NoFileExists(t, dst)
}

func TestRenderFile_MissingOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.c", "int x;\n")

	_, err := RenderFile(context.Background(), src, filepath.Join(dir, "missing", "a.html"), newTestAssembler(t, ""), cformat.DefaultOptions())
	require.ErrorIs(t, err, ErrMissingOutputDir)
}

func TestRenderSource_FreshStatePerFile(t *testing.T) {
	dir := t.TempDir()
	open := writeSource(t, dir, "open.c", "\"abc\n")
	plain := writeSource(t, dir, "plain.c", "int x;\n")
	asm := newTestAssembler(t, "")

	_, _, err := RenderSource(context.Background(), open, asm, cformat.DefaultOptions())
	require.NoError(t, err)

	out, stats, err := RenderSource(context.Background(), plain, asm, cformat.DefaultOptions())
	require.NoError(t, err)
	require.False(t, stats.Unterminated)
	require.NotContains(t, string(out), "c-string")
}

func TestRenderSource_Span(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := tracing.NewProviderWithExporter(exporter)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	dir := t.TempDir()
	src := writeSource(t, dir, "a.c", "int x;\nint y;\n")

	_, _, err := RenderSource(context.Background(), src, newTestAssembler(t, ""), cformat.DefaultOptions())
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanRenderPage, spans[0].Name)
	require.Contains(t, spanAttrs(spans[0]), tracing.AttrSourcePath+"="+src)
	require.Contains(t, spanAttrs(spans[0]), tracing.AttrLineCount+"=2")
}

func spanAttrs(s tracetest.SpanStub) []string {
	out := make([]string, 0, len(s.Attributes))
	for _, kv := range s.Attributes {
		out = append(out, string(kv.Key)+"="+kv.Value.Emit())
	}
	return out
}

func TestWriteRedirectIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteRedirectIndex(root, newTestAssembler(t, "")))

	data, err := os.ReadFile(filepath.Join(root, IndexFile))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
	require.Contains(t, string(data), "URL=/about.html")
}

func TestWriteFileAtomic_NoTempLeftover(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.html")
	require.NoError(t, WriteFileAtomic(dst, []byte("one")))
	require.NoError(t, WriteFileAtomic(dst, []byte("two")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

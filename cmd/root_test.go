package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nativepage/internal/page"
	"github.com/zjrosen/nativepage/internal/paths"
)

// execute runs the root command in a fresh temp working directory state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cfgFile = ""
	debugFlag = false
	buildCheck, buildForce, buildJSON, buildWorkers = false, false, false, 0
	configInitForce = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// sandbox moves the test into an empty directory with no user config.
func sandbox(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestRender(t *testing.T) {
	sandbox(t)
	write(t, "main.c", "int main() {\n\treturn 0;\n}\n")
	require.NoError(t, os.Mkdir("html", 0o750))

	out, err := execute(t, "render", "main.c")
	require.NoError(t, err)
	require.Contains(t, out, "main.c → "+filepath.Join("html", "main.html"))

	data, err := os.ReadFile(filepath.Join("html", "main.html"))
	require.NoError(t, err)
	require.Contains(t, string(data), `<span class="c-keyword">int</span> main()`)
}

func TestRender_ExplicitOutDir(t *testing.T) {
	sandbox(t)
	write(t, "main.c", "int x;\n")
	require.NoError(t, os.Mkdir("public", 0o750))

	_, err := execute(t, "render", "main.c", "public")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join("public", "main.html"))
}

func TestRender_Errors(t *testing.T) {
	sandbox(t)
	write(t, "main.cpp", "int x;\n")
	write(t, "main.c", "int x;\n")

	_, err := execute(t, "render", "main.cpp", ".")
	require.ErrorIs(t, err, page.ErrNotSource)

	_, err = execute(t, "render", "missing.c", ".")
	require.ErrorIs(t, err, page.ErrMissingSource)

	_, err = execute(t, "render", "main.c", "nowhere")
	require.ErrorIs(t, err, page.ErrMissingOutputDir)
}

func TestRender_UnterminatedWarns(t *testing.T) {
	sandbox(t)
	write(t, "open.c", "char *s = \"open\n")

	out, err := execute(t, "render", "open.c", ".")
	require.NoError(t, err)
	require.Contains(t, out, "ends inside a string or escape sequence")
}

func TestBuildAndCheck(t *testing.T) {
	sandbox(t)
	write(t, filepath.Join("src", "main.c"), "int main() {\n\treturn 0;\n}\n")
	write(t, filepath.Join("src", "lib", "list.c"), "struct list;\n")

	out, err := execute(t, "build", "src", "html")
	require.NoError(t, err)
	require.Contains(t, out, "rendered 2, unchanged 0")
	require.FileExists(t, filepath.Join("html", page.IndexFile))
	require.FileExists(t, filepath.Join("html", "lib", "list.html"))

	out, err = execute(t, "build", "src", "html", "--check")
	require.NoError(t, err)
	require.Contains(t, out, "all pages up to date")

	write(t, filepath.Join("src", "main.c"), "int main() {\n\treturn 1;\n}\n")
	out, err = execute(t, "build", "src", "html", "--check")
	require.ErrorIs(t, err, errStale)
	require.Contains(t, out, filepath.Join("html", "main.html")+" is stale")
	require.Contains(t, out, "return</span> 1;")
}

func TestBuild_JSON(t *testing.T) {
	sandbox(t)
	write(t, filepath.Join("src", "main.c"), "int x;\n")

	out, err := execute(t, "build", "src", "html", "--json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.InDelta(t, 1, got["rendered"], 0)
	require.Equal(t, true, got["created"])
	require.NotEmpty(t, got["id"])
}

func TestBuild_MissingSourceDir(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "build", "nope", "html")
	require.Error(t, err)
	require.NoDirExists(t, "html")
}

func TestConfigInitSetShow(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+paths.LocalConfig())

	_, err = execute(t, "config", "init")
	require.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "set", "site.name", "Nick Nadeau")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "render.extra_keywords", "[BUFSIZ]")
	require.NoError(t, err)

	data, err := os.ReadFile(paths.LocalConfig())
	require.NoError(t, err)
	require.Contains(t, string(data), "# Page shell", "comments survive edits")

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "name: Nick Nadeau")
	require.Contains(t, out, "- BUFSIZ")
	require.Contains(t, out, "debounce: 500ms")
}

func TestConfigSet_UnknownKey(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "config", "set", "site.colour", "red")
	require.ErrorContains(t, err, "unknown config key")
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "config", "set", "--", "build.workers", "-3")
	require.ErrorContains(t, err, "invalid value for build.workers")
	_, err = execute(t, "config", "set", "tracing.exporter", "jaeger")
	require.ErrorContains(t, err, "invalid value for tracing.exporter")
	require.NoFileExists(t, paths.LocalConfig())

	_, err = execute(t, "config", "set", "build.workers", "2")
	require.NoError(t, err)
	_, err = execute(t, "config", "show")
	require.NoError(t, err)
}

func TestConfig_ExtraKeywordsUsed(t *testing.T) {
	sandbox(t)
	write(t, "site.yaml", "render:\n  extra_keywords: [BUFSIZ]\n  line_class: src\n")
	write(t, "buf.c", "char b[BUFSIZ];\nBUFSIZ\n")

	_, err := execute(t, "--config", "site.yaml", "render", "buf.c", ".")
	require.NoError(t, err)

	data, err := os.ReadFile("buf.html")
	require.NoError(t, err)
	require.Contains(t, string(data), `<span class="c-keyword">BUFSIZ</span>`)
	require.Contains(t, string(data), `<span class="src" style="margin-left: 0px;">`)
}

func TestConfig_Invalid(t *testing.T) {
	sandbox(t)
	write(t, "bad.yaml", "render:\n  tab_width_px: -1\n")
	write(t, "main.c", "int x;\n")

	_, err := execute(t, "-c", "bad.yaml", "render", "main.c", ".")
	require.ErrorContains(t, err, "invalid configuration")
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	sandbox(t)
	write(t, "main.c", "int x;\n")

	_, err := execute(t, "-c", "missing.yaml", "render", "main.c", ".")
	require.ErrorContains(t, err, "reading config")
}

package tracing

// Span names.
const (
	SpanBuild      = "site.build"
	SpanRenderPage = "page.render"
)

// Span attribute keys.
const (
	AttrBuildID    = "build.id"
	AttrBuildFiles = "build.files"
	AttrSourcePath = "source.path"
	AttrOutputPath = "output.path"
	AttrLineCount  = "source.lines"
	AttrOpenString = "source.unterminated"
)

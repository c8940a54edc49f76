// Package render turns markdown post sources into HTML and highlights code, both for exported
// pages and for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"

	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/theme"
)

var renderLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

const (
	RendererMmark   = "mmark"
	RendererClassic = "classic"
)

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	err = theme.GetFormatter().Format(&buf, theme.GetStyle(highlightTheme), iterator)
	if err != nil {
		return code
	}
	return buf.String()
}

func codeBlockHook(highlightTheme string) md_html.RenderNodeFunc {
	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		code, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return ast.GoToNext, false
		}
		var lang string
		if info := code.Info; info != nil {
			lang = string(info)
		}
		fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, highlightTheme))
		return ast.GoToNext, true
	}
}

// RenderMarkdown renders md with the named renderer. Only mmark reports title data.
func RenderMarkdown(md []byte, renderer, highlightTheme string) ([]byte, *mast.TitleData) {
	switch renderer {
	case RendererClassic:
		return RenderMarkdownClassic(md, highlightTheme), nil
	default:
		return RenderMarkdownMmark(md, highlightTheme)
	}
}

type rendered struct {
	html []byte
	info *mast.TitleData
}

var (
	renderCache      = cache.NewCache[string, rendered]()
	renderCacheMutex sync.Mutex
)

// RenderMarkdownCached memoizes RenderMarkdown by content hash. An empty hash bypasses the
// cache.
func RenderMarkdownCached(md []byte, contentHash, renderer, highlightTheme string) ([]byte, *mast.TitleData) {
	if contentHash == "" {
		renderLogger.Warn().Msg("Content hash is empty, skipping cache check")
		return RenderMarkdown(md, renderer, highlightTheme)
	}

	key := contentHash + "|" + renderer + "|" + highlightTheme
	if cached, found := renderCache.Get(key); found {
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache hit for rendered markdown")
		return cached.html, cached.info
	}

	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := renderCache.Get(key); found {
		return cached.html, cached.info
	}

	renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache miss for rendered markdown")
	html, info := RenderMarkdown(md, renderer, highlightTheme)
	renderCache.Set(key, rendered{html: html, info: info})
	return html, info
}

func ClearCache() {
	renderCache.Clear()
}

func RenderMarkdownClassic(md []byte, highlightTheme string) []byte {
	opts := md_html.RendererOptions{
		Flags:          md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		RenderNodeHook: codeBlockHook(highlightTheme),
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes |
			parser.NonBlockingSpace,
	).Parse(markdown.NormalizeNewlines(md))

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func RenderMarkdownMmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)

	init := mparser.NewInitial("")
	var info *mast.TitleData

	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	// info.Language feeds lang.New, so a document without a title block gets defaults
	if info == nil {
		info = &mast.TitleData{
			Title:    "Untitled",
			Language: "en",
		}
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}
	codeHook := codeBlockHook(highlightTheme)

	opts := md_html.RendererOptions{
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := codeHook(w, node, entering); handled {
				return status, handled
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}

// Package theme resolves syntax highlighting styles and holds the terminal styles of the CLI.
package theme

import (
	"html/template"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/debemdeboas/archive-console/internal/cache"
)

var syntaxCSS = cache.NewCache[string, template.CSS]()

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

// GetStyle returns the named chroma style, or the fallback style for unknown names.
func GetStyle(name string) *chroma.Style {
	style := styles.Get(name)
	if style == nil {
		return styles.Fallback
	}
	return style
}

// GetFormatter is the HTML formatter used for code blocks of exported posts. It emits
// classes, so pages need the CSS from GenerateSyntaxCSS.
func GetFormatter() *html.Formatter {
	formatter := html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WrapLongLines(true),
	)
	return formatter
}

func GenerateSyntaxCSS(theme string) template.CSS {
	if css, ok := syntaxCSS.Get(theme); ok {
		return css
	}

	var buf strings.Builder
	style := GetStyle(theme)

	bg := style.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Pick a readable text colour when the style doesn't supply one
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	if err := GetFormatter().WriteCSS(&buf, style); err != nil {
		return ""
	}
	css := template.CSS(buf.String())
	syntaxCSS.Set(theme, css)
	return css
}

func clearSyntaxCSS() {
	syntaxCSS.Clear()
}

package editor

import (
	_ "embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultTitle       = "Preview"
	DefaultDate        = "Date will be added here"
	DefaultHMargin     = "12px"
	DefaultBgOpacity   = 0.95
	DefaultTitleWeight = "700"
)

//go:embed page.html.tmpl
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

var (
	reCSSLength   = regexp.MustCompile(`^\d+(\.\d+)?(px|em|rem|%|vw)$`)
	reFontWeight  = regexp.MustCompile(`^([1-9]00|normal|bold|lighter|bolder)$`)
	bodySanitizer = newBodyPolicy()
)

// PageOptions tune the layout of the exported page. Zero values take the defaults.
type PageOptions struct {
	HMargin     string
	BgOpacity   float64
	TitleWeight string
}

type PageParams struct {
	Title        string
	Body         string
	CoverURL     string
	CoverCaption string
	Date         string
	Options      PageOptions

	// Stylesheet for highlighted code blocks, if the body has any.
	SyntaxCSS template.CSS
}

type pageData struct {
	Title        string
	Body         template.HTML
	CoverURL     string
	CoverCaption string
	Date         string
	HMargin      template.CSS
	BgOpacity    string
	TitleWeight  template.CSS
	SyntaxCSS    template.CSS
}

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "div", "section", "figure", "figcaption")
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("id").Globally()
	p.AllowAttrs("target").OnElements("a")
	return p
}

// SanitizeBody strips scripts, event handlers and other active content from post HTML.
func SanitizeBody(body string) string {
	return bodySanitizer.Sanitize(body)
}

// BuildFullHTML renders the standalone document a post is exported as. Text values are
// escaped and the body is sanitized.
func BuildFullHTML(p PageParams) (string, error) {
	data := pageData{
		Title:        strings.TrimSpace(p.Title),
		Body:         template.HTML(SanitizeBody(p.Body)),
		CoverURL:     p.CoverURL,
		CoverCaption: strings.TrimSpace(p.CoverCaption),
		Date:         p.Date,
		HMargin:      DefaultHMargin,
		BgOpacity:    formatOpacity(DefaultBgOpacity),
		TitleWeight:  DefaultTitleWeight,
		SyntaxCSS:    p.SyntaxCSS,
	}
	if data.Title == "" {
		data.Title = DefaultTitle
	}
	if data.Date == "" {
		data.Date = DefaultDate
	}
	if reCSSLength.MatchString(p.Options.HMargin) {
		data.HMargin = template.CSS(p.Options.HMargin)
	}
	if p.Options.BgOpacity > 0 && p.Options.BgOpacity <= 1 {
		data.BgOpacity = formatOpacity(p.Options.BgOpacity)
	}
	if reFontWeight.MatchString(p.Options.TitleWeight) {
		data.TitleWeight = template.CSS(p.Options.TitleWeight)
	}

	var buf strings.Builder
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}

func formatOpacity(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

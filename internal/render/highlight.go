package render

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/debemdeboas/archive-console/internal/theme"
)

// HighlightTerminal writes source to w with ANSI colours. Unknown languages are guessed
// from the source.
func HighlightTerminal(w io.Writer, source, language, highlightTheme string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		_, werr := io.WriteString(w, source)
		if werr != nil {
			return werr
		}
		return err
	}
	return formatter.Format(w, theme.GetStyle(highlightTheme), iterator)
}

// Package highlight renders formatted code with terminal colors.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/pkg/errors"

	"github.com/hrygo/codepolish/client"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// LexerName returns the chroma lexer for a language: TypeScript results are
// highlighted as TSX, everything else as JSX.
func LexerName(lang client.Language) string {
	if lang == client.LanguageTypeScript {
		return "tsx"
	}
	return "jsx"
}

// Highlight writes source to w with 256-color escapes.
func Highlight(w io.Writer, source string, lang client.Language, styleName string) error {
	lexer := lexers.Get(LexerName(lang))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	if styleName == "" {
		styleName = DefaultStyle
	}
	style := styles.Get(styleName)

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return errors.Wrap(err, "failed to tokenise source")
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return errors.Wrap(err, "failed to render highlighted source")
	}
	return nil
}

// String is Highlight into a string. On failure the source is returned as is.
func String(source string, lang client.Language, styleName string) string {
	var sb strings.Builder
	if err := Highlight(&sb, source, lang, styleName); err != nil {
		return source
	}
	return sb.String()
}

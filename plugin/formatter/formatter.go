// Package formatter delegates JavaScript and TypeScript formatting to external formatters.
package formatter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// ParserMode is the grammar dialect the formatter uses to read its input.
type ParserMode string

const (
	// ParserBabel is the default mode: JavaScript with JSX.
	ParserBabel ParserMode = "babel"
	// ParserTypeScript is the TypeScript-aware mode.
	ParserTypeScript ParserMode = "typescript"
)

// ParserForLanguage maps a language hint onto a parser mode.
// Only "typescript" selects the TypeScript parser, every other value
// (including the empty string) selects the default mode.
func ParserForLanguage(language string) ParserMode {
	if language == "typescript" {
		return ParserTypeScript
	}
	return ParserBabel
}

// Style is the print configuration handed to the formatter.
type Style struct {
	TrailingComma string // all, es5, none
	PrintWidth    int
	TabWidth      int
	Semi          bool
	SingleQuote   bool
}

// FixedStyle is the only style the service formats with.
var FixedStyle = Style{
	Semi:          true,
	SingleQuote:   true,
	TrailingComma: "all",
	PrintWidth:    80,
	TabWidth:      2,
}

// Engine reformats source text.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string
	// Format returns the reformatted source or an error when the source cannot be parsed.
	Format(ctx context.Context, source string, parser ParserMode) (string, error)
}

// Error carries the formatter's own diagnostic. It is meant for server logs only.
type Error struct {
	Engine string
	Parser ParserMode
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Engine, e.Parser, e.Detail)
}

// Engine names accepted by New.
const (
	EnginePrettier = "prettier"
	EngineESBuild  = "esbuild"
)

// Approximate is implemented by engines that cannot apply every part of the
// fixed style.
type Approximate interface {
	Approximate() bool
}

// Conforms reports whether e applies the fixed style exactly.
func Conforms(e Engine) bool {
	a, ok := e.(Approximate)
	return !ok || !a.Approximate()
}

// Config selects and configures an engine.
type Config struct {
	Engine       string
	PrettierPath string
	Style        Style
}

// New returns the engine named by cfg.Engine, prettier when empty. A missing
// prettier executable is an error; esbuild is only used when asked for.
func New(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case EnginePrettier, "":
		return NewPrettier(cfg.PrettierPath, cfg.Style)
	case EngineESBuild:
		slog.Warn("esbuild engine does not apply the fixed style and rejects typescript")
		return NewESBuild(), nil
	default:
		return nil, errors.Errorf("unknown formatter engine %q", cfg.Engine)
	}
}

package formatter

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// ErrTypeScriptUnsupported is the detail returned for TypeScript input.
const ErrTypeScriptUnsupported = "typescript needs the prettier engine, esbuild would strip type syntax"

// ESBuild reprints JavaScript in-process with esbuild's printer.
//
// esbuild has no quote, trailing comma or print width options, so of the
// fixed style only 2-space indentation, spacing and semicolons apply.
// esbuild's TypeScript loader erases types, so TypeScript input is refused.
type ESBuild struct{}

func NewESBuild() *ESBuild {
	return &ESBuild{}
}

func (*ESBuild) Name() string {
	return EngineESBuild
}

func (*ESBuild) Approximate() bool {
	return true
}

func (*ESBuild) Format(ctx context.Context, source string, parser ParserMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "esbuild interrupted")
	}
	if parser == ParserTypeScript {
		return "", errors.WithStack(&Error{Engine: EngineESBuild, Parser: parser, Detail: ErrTypeScriptUnsupported})
	}

	result := api.Transform(source, api.TransformOptions{
		Loader:        api.LoaderJSX,
		JSX:           api.JSXPreserve,
		Target:        api.ESNext,
		Charset:       api.CharsetUTF8,
		LegalComments: api.LegalCommentsInline,
		LogLevel:      api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", errors.WithStack(&Error{Engine: EngineESBuild, Parser: parser, Detail: describeMessages(result.Errors)})
	}
	return string(result.Code), nil
}

func describeMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Location != nil {
			parts = append(parts, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text))
			continue
		}
		parts = append(parts, msg.Text)
	}
	return strings.Join(parts, "; ")
}

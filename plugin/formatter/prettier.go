package formatter

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Prettier formats by running the prettier CLI, source on stdin and result on stdout.
type Prettier struct {
	path  string
	style Style
}

// NewPrettier resolves the prettier executable and returns an engine using it.
func NewPrettier(path string, style Style) (*Prettier, error) {
	if path == "" {
		path = "prettier"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find prettier executable %s", path)
	}
	return &Prettier{path: resolved, style: style}, nil
}

func (*Prettier) Name() string {
	return EnginePrettier
}

// Args returns the command line for one invocation. Project configuration
// files are ignored so the output only depends on the style.
func (p *Prettier) Args(parser ParserMode) []string {
	args := []string{
		"--parser", string(parser),
		"--no-config",
		"--no-editorconfig",
		"--print-width", strconv.Itoa(p.style.PrintWidth),
		"--tab-width", strconv.Itoa(p.style.TabWidth),
	}
	if !p.style.Semi {
		args = append(args, "--no-semi")
	}
	if p.style.SingleQuote {
		args = append(args, "--single-quote")
	}
	if p.style.TrailingComma != "" {
		args = append(args, "--trailing-comma", p.style.TrailingComma)
	}
	return args
}

func (p *Prettier) Format(ctx context.Context, source string, parser ParserMode) (string, error) {
	cmd := exec.CommandContext(ctx, p.path, p.Args(parser)...)
	cmd.Stdin = strings.NewReader(source)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Wrap(ctxErr, "prettier interrupted")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errors.WithStack(&Error{Engine: EnginePrettier, Parser: parser, Detail: detail})
	}
	return stdout.String(), nil
}

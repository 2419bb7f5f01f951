package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hrygo/codepolish/client"
	"github.com/hrygo/codepolish/client/clipboard"
	"github.com/hrygo/codepolish/client/controller"
	"github.com/hrygo/codepolish/client/highlight"
	"github.com/hrygo/codepolish/client/tui"
	"github.com/hrygo/codepolish/internal/version"
)

var (
	formatCmd = &cobra.Command{
		Use:   "format [file]",
		Short: "Format a file (or stdin) through a codepolish server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFormat,
	}

	tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal editor backed by a codepolish server",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
)

func init() {
	for _, cmd := range []*cobra.Command{formatCmd, tuiCmd} {
		cmd.Flags().StringP("language", "l", string(client.LanguageTypeScript), `language hint, "javascript" or "typescript"`)
		cmd.Flags().String("style", highlight.DefaultStyle, "chroma style for highlighted output")
	}
	formatCmd.Flags().Bool("copy", false, "copy the formatted result to the clipboard")
	tuiCmd.Flags().String("log-file", "", "write logs to this file while the ui is running")
}

func runFormat(cmd *cobra.Command, args []string) error {
	instanceProfile := loadProfile()
	if err := instanceProfile.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	language, styleName, err := clientFlags(cmd)
	if err != nil {
		return err
	}
	copyResult, _ := cmd.Flags().GetBool("copy")

	source, err := readSource(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
	defer stop()

	c := client.New(instanceProfile.ServerURL)
	warnIfIncompatible(ctx, c)

	ctrl := controller.New(c,
		controller.WithLanguage(language),
		controller.WithClipboard(clipboard.New(os.Stderr)))
	ctrl.SetInput(source)

	if !ctrl.Format(ctx) {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Nothing to format.")
		return nil
	}

	snapshot := ctrl.Snapshot()
	if snapshot.State == controller.StateFailed {
		color.New(color.FgRed).Fprintln(os.Stderr, snapshot.ErrorText())
		return errSilent
	}

	if err := writeResult(os.Stdout, snapshot, styleName); err != nil {
		return err
	}

	if copyResult {
		if err := ctrl.Copy(); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(os.Stderr, "Magic copied!")
	}
	return nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	instanceProfile := loadProfile()
	if err := instanceProfile.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	language, styleName, err := clientFlags(cmd)
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("tui needs an interactive terminal, use the format command instead")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
	defer stop()

	c := client.New(instanceProfile.ServerURL)
	warnIfIncompatible(ctx, c)

	// The ui owns the terminal, so logs go to a file or nowhere.
	logFile, _ := cmd.Flags().GetString("log-file")
	var logOutput io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "failed to open log file %s", logFile)
		}
		defer f.Close()
		logOutput = f
	}
	setupLogger(logOutput, instanceProfile.Mode)

	ctrl := controller.New(c,
		controller.WithLanguage(language),
		controller.WithClipboard(clipboard.New(os.Stdout)))
	return tui.Run(ctx, ctrl, styleName, os.Stdout)
}

func clientFlags(cmd *cobra.Command) (client.Language, string, error) {
	raw, _ := cmd.Flags().GetString("language")
	styleName, _ := cmd.Flags().GetString("style")

	switch language := client.Language(strings.ToLower(strings.TrimSpace(raw))); language {
	case client.LanguageJavaScript, client.LanguageTypeScript:
		return language, styleName, nil
	default:
		return "", "", errors.Errorf("unsupported language %q, use javascript or typescript", raw)
	}
}

func readSource(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", args[0])
	}
	return string(b), nil
}

// writeResult highlights the result when out is a terminal and colors are on.
func writeResult(out *os.File, snapshot controller.Snapshot, styleName string) error {
	if !color.NoColor && term.IsTerminal(int(out.Fd())) {
		return highlight.Highlight(out, snapshot.Result, snapshot.Language, styleName)
	}
	_, err := fmt.Fprint(out, snapshot.Result)
	return errors.Wrap(err, "failed to write result")
}

// warnIfIncompatible prints a warning when the server is older than this
// client. An unreachable server is left for the format request to report.
func warnIfIncompatible(ctx context.Context, c *client.Client) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		slog.Debug("health check failed", "error", err)
		return
	}
	if !version.IsCompatible(health.Version) {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: server version %s is older than client version %s\n", health.Version, version.Version)
	}
	if !health.Conforming {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Warning: server engine %s only approximates the house style\n", health.Engine)
	}
}

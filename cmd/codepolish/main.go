package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/codepolish/internal/profile"
	"github.com/hrygo/codepolish/internal/version"
	"github.com/hrygo/codepolish/server"
)

const defaultServerURL = "http://localhost:28090"

// errSilent marks a failure that was already reported to the user.
var errSilent = errors.New("silent failure")

var (
	rootCmd = &cobra.Command{
		Use:           "codepolish",
		Short:         `Format JavaScript and TypeScript with a fixed house style.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !isRunningAsSystemdService() {
				// .env is optional.
				_ = godotenv.Load()
			}
			if viper.GetBool("no-color") {
				color.NoColor = true
			}
			setupLogger(os.Stderr, viper.GetString("mode"))
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := loadProfile()
			if err := instanceProfile.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, err := server.NewServer(ctx, instanceProfile)
			if err != nil {
				slog.Error("failed to create server", "error", err)
				return errSilent
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				return errSilent
			}

			printGreetings(instanceProfile, s.Engine.Name())

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28090)
	viper.SetDefault("server-url", defaultServerURL)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("engine", "", `formatter engine, "prettier" (default) or "esbuild" for approximate JavaScript-only output`)
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "format requests per second per client, 0 disables")
	rootCmd.PersistentFlags().String("server-url", defaultServerURL, "the url of the codepolish server used by clients")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	for _, name := range []string{"mode", "addr", "port", "engine", "rate-limit", "server-url", "no-color"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("codepolish")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(formatCmd, tuiCmd, versionCmd)
}

func loadProfile() *profile.Profile {
	instanceProfile := &profile.Profile{
		Mode:      viper.GetString("mode"),
		Addr:      viper.GetString("addr"),
		Port:      viper.GetInt("port"),
		Engine:    viper.GetString("engine"),
		RateLimit: viper.GetFloat64("rate-limit"),
		ServerURL: viper.GetString("server-url"),
		Version:   version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	return instanceProfile
}

// setupLogger installs the default slog logger: human readable text in dev
// mode, JSON otherwise.
func setupLogger(w io.Writer, mode string) {
	var handler slog.Handler
	if mode == "dev" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(profile *profile.Profile, engine string) {
	fmt.Printf("codepolish %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Formatter engine: %s\n", engine)
	fmt.Printf("Mode: %s\n", profile.Mode)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Open codepolish at: http://localhost:%d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("Open codepolish at: http://%s:%d\n", profile.Addr, profile.Port)
	}
	fmt.Println()
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSilent) {
			color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

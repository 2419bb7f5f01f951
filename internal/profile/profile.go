package profile

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/codepolish/plugin/formatter"
)

// Profile is configuration to start the server and the clients.
type Profile struct {
	// Server configuration
	Mode    string
	Addr    string
	Version string
	Port    int

	// Formatter configuration
	Engine        string        // prettier, or esbuild for approximate JavaScript-only output
	PrettierPath  string        // prettier executable, resolved on PATH when relative
	FormatTimeout time.Duration // upper bound for a single formatter invocation
	MaxConcurrent int           // concurrent formatter invocations
	MaxBodyBytes  int64         // request body limit for the format endpoint
	RateLimit     float64       // requests per second per client IP, 0 disables

	// Client configuration
	ServerURL string
}

const (
	defaultPort          = 28090
	defaultMaxConcurrent = 4
	defaultFormatTimeout = 30 * time.Second
	defaultMaxBodyBytes  = 1 << 20
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads formatter settings that are not exposed as flags.
// Values already set on the profile win over the environment.
func (p *Profile) FromEnv() {
	if p.Engine == "" {
		p.Engine = getEnvOrDefault("CODEPOLISH_ENGINE", formatter.EnginePrettier)
	}
	if p.PrettierPath == "" {
		p.PrettierPath = getEnvOrDefault("CODEPOLISH_PRETTIER_PATH", "prettier")
	}
	if p.FormatTimeout == 0 {
		p.FormatTimeout = time.Duration(getEnvOrDefaultInt("CODEPOLISH_FORMAT_TIMEOUT_SECONDS", int(defaultFormatTimeout/time.Second))) * time.Second
	}
	if p.MaxConcurrent == 0 {
		p.MaxConcurrent = getEnvOrDefaultInt("CODEPOLISH_MAX_CONCURRENT", defaultMaxConcurrent)
	}
	if p.MaxBodyBytes == 0 {
		p.MaxBodyBytes = int64(getEnvOrDefaultInt("CODEPOLISH_MAX_BODY_BYTES", defaultMaxBodyBytes))
	}
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port == 0 {
		p.Port = defaultPort
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	p.Engine = strings.ToLower(strings.TrimSpace(p.Engine))
	switch p.Engine {
	case "":
		p.Engine = formatter.EnginePrettier
	case formatter.EnginePrettier, formatter.EngineESBuild:
	default:
		return errors.Errorf("unknown formatter engine %q", p.Engine)
	}

	if p.PrettierPath == "" {
		p.PrettierPath = "prettier"
	}
	if p.FormatTimeout <= 0 {
		p.FormatTimeout = defaultFormatTimeout
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = defaultMaxConcurrent
	}
	if p.MaxBodyBytes <= 0 {
		p.MaxBodyBytes = defaultMaxBodyBytes
	}
	if p.RateLimit < 0 {
		return errors.Errorf("invalid rate limit %v", p.RateLimit)
	}

	p.ServerURL = strings.TrimRight(p.ServerURL, "/")
	return nil
}

// ListenAddr returns the host:port the server binds to.
func (p *Profile) ListenAddr() string {
	return p.Addr + ":" + strconv.Itoa(p.Port)
}

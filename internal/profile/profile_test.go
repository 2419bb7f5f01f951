package profile

import (
	"os"
	"testing"
	"time"

	"github.com/hrygo/codepolish/plugin/formatter"
)

// TestProfileDefaults checks the formatter defaults applied by FromEnv and Validate.
func TestProfileDefaults(t *testing.T) {
	clearFormatterEnvVars(t)

	profile := &Profile{Mode: "dev"}
	profile.FromEnv()
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{"Engine default", formatter.EnginePrettier, profile.Engine},
		{"PrettierPath default", "prettier", profile.PrettierPath},
		{"FormatTimeout default", 30 * time.Second, profile.FormatTimeout},
		{"MaxConcurrent default", 4, profile.MaxConcurrent},
		{"MaxBodyBytes default", int64(1 << 20), profile.MaxBodyBytes},
		{"Port default", 28090, profile.Port},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, tt.actual)
			}
		})
	}
}

// TestProfileFromEnv checks environment overrides.
func TestProfileFromEnv(t *testing.T) {
	clearFormatterEnvVars(t)
	t.Setenv("CODEPOLISH_ENGINE", "esbuild")
	t.Setenv("CODEPOLISH_PRETTIER_PATH", "/opt/prettier/bin/prettier")
	t.Setenv("CODEPOLISH_FORMAT_TIMEOUT_SECONDS", "5")
	t.Setenv("CODEPOLISH_MAX_CONCURRENT", "8")

	profile := &Profile{}
	profile.FromEnv()

	if profile.Engine != formatter.EngineESBuild {
		t.Errorf("Engine = %q, want %q", profile.Engine, formatter.EngineESBuild)
	}
	if profile.PrettierPath != "/opt/prettier/bin/prettier" {
		t.Errorf("PrettierPath = %q", profile.PrettierPath)
	}
	if profile.FormatTimeout != 5*time.Second {
		t.Errorf("FormatTimeout = %v, want 5s", profile.FormatTimeout)
	}
	if profile.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", profile.MaxConcurrent)
	}
}

// TestProfileFromEnv_FlagsWin checks that explicitly set values are kept.
func TestProfileFromEnv_FlagsWin(t *testing.T) {
	clearFormatterEnvVars(t)
	t.Setenv("CODEPOLISH_ENGINE", "esbuild")

	profile := &Profile{Engine: formatter.EnginePrettier}
	profile.FromEnv()

	if profile.Engine != formatter.EnginePrettier {
		t.Errorf("Engine = %q, want %q", profile.Engine, formatter.EnginePrettier)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name       string
		profile    Profile
		wantErr    bool
		wantMode   string
		wantEngine string
	}{
		{name: "unknown mode falls back to demo", profile: Profile{Mode: "staging"}, wantMode: "demo", wantEngine: formatter.EnginePrettier},
		{name: "unknown engine is rejected", profile: Profile{Mode: "prod", Engine: "dprint"}, wantErr: true},
		{name: "auto is not an engine", profile: Profile{Mode: "prod", Engine: "auto"}, wantErr: true},
		{name: "engine is normalized", profile: Profile{Mode: "dev", Engine: " Prettier "}, wantMode: "dev", wantEngine: formatter.EnginePrettier},
		{name: "esbuild is an explicit opt-in", profile: Profile{Mode: "dev", Engine: "esbuild"}, wantMode: "dev", wantEngine: formatter.EngineESBuild},
		{name: "port out of range", profile: Profile{Mode: "dev", Port: 70000}, wantErr: true},
		{name: "negative rate limit", profile: Profile{Mode: "dev", RateLimit: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			err := p.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if p.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", p.Mode, tt.wantMode)
			}
			if p.Engine != tt.wantEngine {
				t.Errorf("Engine = %q, want %q", p.Engine, tt.wantEngine)
			}
		})
	}
}

func TestProfileValidate_TrimsServerURL(t *testing.T) {
	p := &Profile{Mode: "dev", ServerURL: "http://localhost:28090/"}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.ServerURL != "http://localhost:28090" {
		t.Errorf("ServerURL = %q", p.ServerURL)
	}
	if got := p.ListenAddr(); got != ":28090" {
		t.Errorf("ListenAddr() = %q, want %q", got, ":28090")
	}
}

// clearFormatterEnvVars unsets every CODEPOLISH_* variable read by FromEnv.
func clearFormatterEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CODEPOLISH_ENGINE",
		"CODEPOLISH_PRETTIER_PATH",
		"CODEPOLISH_FORMAT_TIMEOUT_SECONDS",
		"CODEPOLISH_MAX_CONCURRENT",
		"CODEPOLISH_MAX_BODY_BYTES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

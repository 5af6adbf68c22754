// Package profile holds the runtime configuration for the server.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Data is the data directory.
	Data string
	// DSN points to where the server stores its own data.
	DSN string
	// Driver is the database driver (sqlite or postgres).
	Driver string
	// Secret signs access tokens.
	Secret string
	// Version is the current version of the server.
	Version string

	// AI configuration.
	AIBaseURL   string // AMICOACH_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey    string // AMICOACH_AI_API_KEY
	AIChatModel string // AMICOACH_AI_CHAT_MODEL (default: gpt-4o-mini)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a completion provider is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// FromEnv fills AI and secret settings from AMICOACH_* environment variables
// via viper. Flags already set take precedence over the environment.
func (p *Profile) FromEnv(v *viper.Viper) {
	v.SetEnvPrefix("amicoach")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if p.Secret == "" {
		p.Secret = v.GetString("secret")
	}
	p.AIBaseURL = getStringOrDefault(v, "ai.base-url", "https://api.openai.com/v1")
	p.AIAPIKey = v.GetString("ai.api-key")
	p.AIChatModel = getStringOrDefault(v, "ai.chat-model", "gpt-4o-mini")
}

func getStringOrDefault(v *viper.Viper, key, defaultValue string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if a relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case the user supplies one.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported db driver %q: only sqlite and postgres are supported", p.Driver)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Mode == "prod" && p.Secret == "" {
		return errors.New("secret is required in prod mode")
	}
	if p.Secret == "" {
		p.Secret = "amicoach-dev-secret"
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("amicoach_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}

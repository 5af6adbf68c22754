package profile

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv(viper.New())

	assert.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
	assert.Equal(t, "gpt-4o-mini", p.AIChatModel)
	assert.Empty(t, p.AIAPIKey)
	assert.False(t, p.IsAIEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AMICOACH_AI_API_KEY", "sk-test")
	t.Setenv("AMICOACH_AI_CHAT_MODEL", "gpt-4o")
	t.Setenv("AMICOACH_SECRET", "env-secret")

	p := &Profile{}
	p.FromEnv(viper.New())

	assert.Equal(t, "sk-test", p.AIAPIKey)
	assert.Equal(t, "gpt-4o", p.AIChatModel)
	assert.Equal(t, "env-secret", p.Secret)
	assert.True(t, p.IsAIEnabled())
}

func TestValidate(t *testing.T) {
	t.Run("UnknownModeFallsBackToDemo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Driver: "sqlite", Data: t.TempDir()}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("SQLiteDefaultDSN", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
		require.NoError(t, p.Validate())
		assert.Contains(t, p.DSN, "amicoach_dev.db")
	})

	t.Run("PostgresRequiresDSN", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("UnknownDriverRejected", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})

	t.Run("ProdRequiresSecret", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "sqlite", Data: t.TempDir()}
		assert.Error(t, p.Validate())
	})
}

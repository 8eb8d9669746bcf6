package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/apperr"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INBOUND_API_KEY", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://inbound.new/api/v2", cfg.Inbound.BaseURL)
	assert.Equal(t, 30, cfg.Mail.PollIntervalSec)
	assert.Equal(t, 10, cfg.Mail.StaleAfterSec)
	assert.Equal(t, "gmail_quote", cfg.Server.QuoteMarkerClass)
	assert.Equal(t, "local", cfg.Dump.Type)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
inbound:
  api_key: "from-file"
  base_url: "https://staging.inbound.test/api/v2"
mail:
  from_address: "support@example.com"
  page_size: 50
server:
  addr: ":8080"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("INBOUND_API_KEY", "from-env")
	t.Setenv("BROWSERLESS_TOKEN", "render-token")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Inbound.APIKey)
	assert.Equal(t, "https://staging.inbound.test/api/v2", cfg.Inbound.BaseURL)
	assert.Equal(t, "support@example.com", cfg.Mail.FromAddress)
	assert.Equal(t, 50, cfg.Mail.PageSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "render-token", cfg.Render.Token)
	assert.Equal(t, "eu-west-1", cfg.Dump.S3Region)
}

func TestRequireReportsEveryMissingField(t *testing.T) {
	cfg := &AppConfig{Inbound: InboundConfig{BaseURL: "https://inbound.new/api/v2"}}

	err := cfg.Require(RequireInbound, RequireRender, RequireSender)
	require.Error(t, err)

	var cfgErr *apperr.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Missing, 3)
	assert.Contains(t, err.Error(), "INBOUND_API_KEY")
	assert.Contains(t, err.Error(), "BROWSERLESS_TOKEN")
}

func TestFillCredentialsOnlyFillsEmptyFields(t *testing.T) {
	cfg := &AppConfig{Inbound: InboundConfig{APIKey: "already-set"}}
	lookup := func(name string) (string, error) {
		switch name {
		case CredentialRenderToken:
			return "keyring-token", nil
		default:
			return "keyring-" + name, errors.New("not found")
		}
	}

	cfg.FillCredentials(lookup)

	assert.Equal(t, "already-set", cfg.Inbound.APIKey)
	assert.Equal(t, "keyring-token", cfg.Render.Token)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestSaveConfigOmitsSecrets(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &AppConfig{
		Inbound: InboundConfig{APIKey: "secret", BaseURL: "https://inbound.new/api/v2"},
		Mail:    MailConfig{FromAddress: "me@example.com"},
	}

	require.NoError(t, SaveConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "me@example.com")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

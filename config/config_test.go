package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, settings.RecursionLimit)
	assert.Equal(t, 384, settings.MaxMessageTokens)
	assert.InDelta(t, 4.0, settings.RateRequestsPerSecond, 0.001)
	assert.Equal(t, 10, settings.RateBurstCapacity)
	assert.Equal(t, "https://api.github.com", settings.GitHub.APIURL)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
recursion_limit: 25
max_message_tokens: 512
jira:
  instance_url: https://example.atlassian.net
  username: bot@example.com
  api_token: secret
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, settings.RecursionLimit)
	assert.Equal(t, 512, settings.MaxMessageTokens)
	assert.Equal(t, "https://example.atlassian.net", settings.Jira.InstanceURL)
}

func TestValidate_Failures(t *testing.T) {
	cases := map[string]func(*Settings){
		"recursion_limit":                func(s *Settings) { s.RecursionLimit = 0 },
		"max_message_tokens":             func(s *Settings) { s.MaxMessageTokens = -1 },
		"rate_limit_requests_per_second": func(s *Settings) { s.RateRequestsPerSecond = 0 },
		"rate_limit_burst_capacity":      func(s *Settings) { s.RateBurstCapacity = 0 },
		"jira.api_token":                 func(s *Settings) { s.Jira.InstanceURL = "https://x.atlassian.net" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			settings := DefaultSettings()
			mutate(&settings)
			err := settings.Validate()
			require.Error(t, err)
			var cfgErr *core.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var allVars = []string{
	EnvProvider, EnvOpenAIAPIKey, EnvOpenAIAPIBase, EnvModel,
	EnvAzureAPIKey, EnvAzureEndpoint, EnvAzureAPIVersion, EnvAzureDeployment,
	EnvTemperature, EnvMaxTokens, EnvAgentName, EnvAgentVersion, EnvAgentPrompt,
	EnvMockTestData, EnvMockFileData, EnvLogLevel,
}

// isolate blanks every recognised variable (empty counts as unset) and
// returns an option pointing Load at a .env path inside a temp dir.
func isolate(t *testing.T) (Option, string) {
	t.Helper()
	for _, name := range allVars {
		t.Setenv(name, "")
	}
	path := filepath.Join(t.TempDir(), ".env")
	return WithEnvFile(path), path
}

func requireConfigError(t *testing.T, err error, vars ...string) {
	t.Helper()
	var ce *ConfigError
	require.True(t, errors.As(err, &ce), "expected *ConfigError, got %v", err)
	for _, v := range vars {
		require.Contains(t, ce.Vars, v)
		require.Contains(t, err.Error(), v)
	}
}

func TestLoadDefaultsToOpenAI(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	require.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	require.Equal(t, DefaultOpenAIBase, cfg.LLM.Endpoint)
	require.Equal(t, "sk-test-key", cfg.LLM.APIKey)
	require.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-6)
	require.Equal(t, 1000, cfg.LLM.MaxTokens)
	require.Equal(t, DefaultAgentName, cfg.Agent.Name)
	require.Equal(t, DefaultAgentVersion, cfg.Agent.Version)
	require.Equal(t, DefaultPrompt, cfg.Agent.Prompt)
	require.Empty(t, cfg.EnvFile)
}

func TestLoadOpenAIUsesSuppliedValues(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
	t.Setenv(EnvOpenAIAPIBase, "http://vllm.internal/v1")
	t.Setenv(EnvModel, "llama-3")
	t.Setenv(EnvTemperature, "0.2")
	t.Setenv(EnvMaxTokens, "64")
	t.Setenv(EnvAgentName, "probe")
	t.Setenv(EnvAgentVersion, "2.0.0")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, "http://vllm.internal/v1", cfg.LLM.Endpoint)
	require.Equal(t, "llama-3", cfg.LLM.Model)
	require.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	require.Equal(t, 64, cfg.LLM.MaxTokens)
	require.Equal(t, "probe", cfg.Agent.Name)
	require.Equal(t, "2.0.0", cfg.Agent.Version)
}

func TestLoadAzure(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "azure")
	t.Setenv(EnvAzureAPIKey, "azure-key-123456")
	t.Setenv(EnvAzureEndpoint, "https://example.openai.azure.com")
	t.Setenv(EnvAzureAPIVersion, "2024-06-01")
	t.Setenv(EnvAzureDeployment, "gpt-4o-prod")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, ProviderAzure, cfg.LLM.Provider)
	require.Equal(t, "gpt-4o-prod", cfg.LLM.DeploymentName)
	require.Equal(t, "gpt-4o-prod", cfg.LLM.Model)
	require.Equal(t, "https://example.openai.azure.com", cfg.LLM.Endpoint)
	require.Equal(t, "2024-06-01", cfg.LLM.APIVersion)
	require.Equal(t, "azure-key-123456", cfg.LLM.APIKey)
}

func TestLoadAzureDefaultsAPIVersion(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "AZURE")
	t.Setenv(EnvAzureAPIKey, "azure-key-123456")
	t.Setenv(EnvAzureEndpoint, "https://example.openai.azure.com")
	t.Setenv(EnvAzureDeployment, "gpt-4o-prod")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, ProviderAzure, cfg.LLM.Provider)
	require.Equal(t, DefaultAPIVersion, cfg.LLM.APIVersion)
}

func TestLoadAzureMissingEndpoint(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "azure")
	t.Setenv(EnvAzureAPIKey, "azure-key-123456")
	t.Setenv(EnvAzureDeployment, "gpt-4o-prod")

	_, err := Load(opt)
	requireConfigError(t, err, EnvAzureEndpoint)
}

func TestLoadAzureReportsEveryMissingVar(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "azure")

	_, err := Load(opt)
	requireConfigError(t, err, EnvAzureDeployment, EnvAzureEndpoint, EnvAzureAPIKey)
}

func TestLoadOpenAIMissingKey(t *testing.T) {
	opt, _ := isolate(t)

	_, err := Load(opt)
	requireConfigError(t, err, EnvOpenAIAPIKey)
}

func TestLoadPlaceholderCountsAsMissing(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "azure")
	t.Setenv(EnvAzureAPIKey, "your_azure_api_key_here")
	t.Setenv(EnvAzureEndpoint, "https://example.openai.azure.com")
	t.Setenv(EnvAzureDeployment, "gpt-4o-prod")

	_, err := Load(opt)
	requireConfigError(t, err, EnvAzureAPIKey)
}

func TestLoadUnknownProviderFallsBackToOpenAI(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvProvider, "anthropic")
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
}

func TestLoadMalformedNumbers(t *testing.T) {
	cases := []struct {
		name  string
		env   string
		value string
	}{
		{"temperature not a number", EnvTemperature, "warm"},
		{"temperature out of range", EnvTemperature, "1.5"},
		{"temperature NaN", EnvTemperature, "NaN"},
		{"temperature infinite", EnvTemperature, "+Inf"},
		{"max tokens not an integer", EnvMaxTokens, "lots"},
		{"max tokens zero", EnvMaxTokens, "0"},
		{"max tokens negative", EnvMaxTokens, "-5"},
		{"max tokens hex", EnvMaxTokens, "0x40"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt, _ := isolate(t)
			t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
			t.Setenv(tc.env, tc.value)

			_, err := Load(opt)
			requireConfigError(t, err, tc.env)
		})
	}
}

func TestLoadNumbersAreDecimal(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
	t.Setenv(EnvMaxTokens, "010")
	t.Setenv(EnvTemperature, "0")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.LLM.MaxTokens)
	require.Zero(t, cfg.LLM.Temperature)
}

func TestLoadBlankPromptUsesDefault(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
	t.Setenv(EnvAgentPrompt, "   ")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, DefaultPrompt, cfg.Agent.Prompt)
}

func TestLoadReturnsResolvedConfigOnError(t *testing.T) {
	opt, path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte("LLM_PROVIDER=azure\n"), 0o600))
	t.Setenv(EnvAzureDeployment, "gpt-4o-prod")

	cfg, err := Load(opt)
	requireConfigError(t, err, EnvAzureEndpoint, EnvAzureAPIKey)
	require.NotNil(t, cfg)
	require.Equal(t, ProviderAzure, cfg.LLM.Provider)
	require.Equal(t, "gpt-4o-prod", cfg.LLM.Model)
	require.Equal(t, path, cfg.EnvFile)
}

func TestLoadEnvFileFillsGaps(t *testing.T) {
	opt, path := isolate(t)
	envFile := "OPENAI_API_KEY=sk-from-file\nLLM_MODEL=gpt-from-file\nLLM_MAX_TOKENS=250\n"
	require.NoError(t, os.WriteFile(path, []byte(envFile), 0o600))
	t.Setenv(EnvModel, "gpt-from-env")

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, path, cfg.EnvFile)
	require.Equal(t, "sk-from-file", cfg.LLM.APIKey)
	require.Equal(t, "gpt-from-env", cfg.LLM.Model, "real environment must win over .env")
	require.Equal(t, 250, cfg.LLM.MaxTokens)
}

func TestLoadReadsMockData(t *testing.T) {
	opt, _ := isolate(t)
	t.Setenv(EnvOpenAIAPIKey, "sk-test-key")
	t.Setenv(EnvMockTestData, `{"name":"t1","log":"ok"}`)
	t.Setenv(EnvMockFileData, `{"name":"f1","content":"body"}`)

	cfg, err := Load(opt)
	require.NoError(t, err)
	require.Equal(t, `{"name":"t1","log":"ok"}`, cfg.Mock.TestData)
	require.Equal(t, `{"name":"f1","content":"body"}`, cfg.Mock.FileData)
}

func TestSummaryMasksSecrets(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderAzure, APIKey: "abcd1234567890wxyz", APIVersion: "v1"}}

	fields := map[string]string{}
	for _, f := range cfg.Summary() {
		fields[f.Name] = f.Value
	}
	require.Equal(t, "abcd...wxyz", fields["API Key"])
	require.Equal(t, "v1", fields["API Version"])
	require.Equal(t, "***", MaskSecret("short"))
}

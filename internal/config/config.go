package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/comigor/llm-smoke/internal/logger"
)

// Environment variables recognised by Load.
const (
	EnvProvider         = "LLM_PROVIDER"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIAPIBase    = "OPENAI_API_BASE"
	EnvModel            = "LLM_MODEL"
	EnvAzureAPIKey      = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint    = "AZURE_OPENAI_ENDPOINT"
	EnvAzureAPIVersion  = "AZURE_OPENAI_API_VERSION"
	EnvAzureDeployment  = "AZURE_OPENAI_DEPLOYMENT_NAME"
	EnvTemperature      = "LLM_TEMPERATURE"
	EnvMaxTokens        = "LLM_MAX_TOKENS"
	EnvAgentName        = "AGENT_NAME"
	EnvAgentVersion     = "AGENT_VERSION"
	EnvAgentPrompt      = "AGENT_PROMPT"
	EnvMockTestData     = "MOCK_TEST_DATA"
	EnvMockFileData     = "MOCK_FILE_DATA"
	EnvLogLevel         = "LOG_LEVEL"
	DefaultEnvFile      = ".env"
	DefaultOpenAIBase   = "https://api.openai.com/v1"
	DefaultModel        = "gpt-3.5-turbo"
	DefaultAPIVersion   = "2024-08-01-preview"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000
	DefaultAgentName    = "simple_agent"
	DefaultAgentVersion = "1.0.0"
	DefaultPrompt       = "Say Hello!"
)

// Provider selects the chat-completion API flavour.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderAzure  Provider = "azure"
)

// Config holds the application configuration. It is built once by Load and not modified afterwards.
type Config struct {
	LLM      LLMConfig
	Agent    AgentConfig
	Mock     MockConfig
	LogLevel string
	// EnvFile is the .env path that was read, empty when only the process environment was used.
	EnvFile string
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider Provider
	// Model is the model name for openai and the deployment name for azure.
	Model          string
	Endpoint       string
	APIKey         string
	APIVersion     string
	DeploymentName string
	Temperature    float32
	MaxTokens      int
}

// AgentConfig holds display metadata and the initial prompt.
type AgentConfig struct {
	Name    string
	Version string
	Prompt  string
}

// MockConfig carries the raw MOCK_* JSON documents; internal/mock decodes them.
type MockConfig struct {
	TestData string
	FileData string
}

// ConfigError reports missing or malformed settings by variable name.
type ConfigError struct {
	Vars   []string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Reason, strings.Join(e.Vars, ", "))
}

// placeholders are values shipped in example env files; they count as unset.
var placeholders = map[string]struct{}{
	"your_api_key_here":                           {},
	"your_azure_api_key_here":                     {},
	"https://your-resource-name.openai.azure.com": {},
	"your-deployment-name":                        {},
}

type options struct {
	envFile string
}

// Option customises Load.
type Option func(*options)

// WithEnvFile reads dotenv values from path instead of ./.env.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// Load builds the configuration from the process environment and an optional .env file.
// Variables already present in the environment win; the file only fills gaps.
//
// On a *ConfigError the returned Config is still non-nil and carries every value
// resolved so far, so callers can show what was picked up before failing.
func Load(opts ...Option) (*Config, error) {
	o := options{envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{}
	if _, err := os.Stat(o.envFile); err == nil {
		v.SetConfigFile(o.envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			logger.L.Warn("failed to read env file; using environment only", "path", o.envFile, "error", err)
		} else {
			cfg.EnvFile = o.envFile
		}
	}

	get := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	cfg.LLM.Provider = parseProvider(get(EnvProvider))
	switch cfg.LLM.Provider {
	case ProviderAzure:
		cfg.LLM.APIKey = get(EnvAzureAPIKey)
		cfg.LLM.Endpoint = get(EnvAzureEndpoint)
		cfg.LLM.APIVersion = get(EnvAzureAPIVersion)
		cfg.LLM.DeploymentName = get(EnvAzureDeployment)
		cfg.LLM.Model = cfg.LLM.DeploymentName
	default:
		cfg.LLM.APIKey = get(EnvOpenAIAPIKey)
		cfg.LLM.Endpoint = get(EnvOpenAIAPIBase)
		cfg.LLM.Model = get(EnvModel)
	}

	cfg.Agent = AgentConfig{
		Name:    get(EnvAgentName),
		Version: get(EnvAgentVersion),
		Prompt:  get(EnvAgentPrompt),
	}
	// A whitespace-only prompt trims to nothing; the conversation must open with text.
	if cfg.Agent.Prompt == "" {
		cfg.Agent.Prompt = DefaultPrompt
	}
	cfg.Mock = MockConfig{
		TestData: get(EnvMockTestData),
		FileData: get(EnvMockFileData),
	}
	cfg.LogLevel = get(EnvLogLevel)

	temperature, err := cast.ToFloat64E(get(EnvTemperature))
	if err != nil {
		return cfg, &ConfigError{Vars: []string{EnvTemperature}, Reason: fmt.Sprintf("not a number (%q)", get(EnvTemperature))}
	}
	if math.IsNaN(temperature) || temperature < 0 || temperature > 1 {
		return cfg, &ConfigError{Vars: []string{EnvTemperature}, Reason: fmt.Sprintf("must be within [0,1], got %v", temperature)}
	}
	cfg.LLM.Temperature = float32(temperature)

	// Decimal only: cast.ToIntE would read "010" as octal and accept "0x40".
	maxTokens, err := strconv.Atoi(get(EnvMaxTokens))
	if err != nil {
		return cfg, &ConfigError{Vars: []string{EnvMaxTokens}, Reason: fmt.Sprintf("not an integer (%q)", get(EnvMaxTokens))}
	}
	if maxTokens <= 0 {
		return cfg, &ConfigError{Vars: []string{EnvMaxTokens}, Reason: fmt.Sprintf("must be > 0, got %d", maxTokens)}
	}
	cfg.LLM.MaxTokens = maxTokens

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults populates documented defaults for optional variables.
func setDefaults(v *viper.Viper) {
	v.SetDefault(EnvProvider, string(ProviderOpenAI))
	v.SetDefault(EnvOpenAIAPIBase, DefaultOpenAIBase)
	v.SetDefault(EnvModel, DefaultModel)
	v.SetDefault(EnvAzureAPIVersion, DefaultAPIVersion)
	v.SetDefault(EnvTemperature, fmt.Sprint(DefaultTemperature))
	v.SetDefault(EnvMaxTokens, fmt.Sprint(DefaultMaxTokens))
	v.SetDefault(EnvAgentName, DefaultAgentName)
	v.SetDefault(EnvAgentVersion, DefaultAgentVersion)
	v.SetDefault(EnvAgentPrompt, DefaultPrompt)
	v.SetDefault(EnvLogLevel, "info")
}

func parseProvider(raw string) Provider {
	switch p := Provider(strings.ToLower(raw)); p {
	case ProviderOpenAI, ProviderAzure:
		return p
	default:
		logger.L.Warn("unrecognised LLM provider; falling back to openai", "value", raw)
		return ProviderOpenAI
	}
}

// RequiredVars lists the variables that must be non-empty for p.
func RequiredVars(p Provider) []string {
	if p == ProviderAzure {
		return []string{EnvAzureDeployment, EnvAzureEndpoint, EnvAzureAPIKey, EnvAzureAPIVersion}
	}
	return []string{EnvOpenAIAPIKey}
}

// Validate checks that every required setting for the selected provider is present.
func (c *Config) Validate() error {
	var values map[string]string
	switch c.LLM.Provider {
	case ProviderAzure:
		values = map[string]string{
			EnvAzureDeployment: c.LLM.DeploymentName,
			EnvAzureEndpoint:   c.LLM.Endpoint,
			EnvAzureAPIKey:     c.LLM.APIKey,
			EnvAzureAPIVersion: c.LLM.APIVersion,
		}
	case ProviderOpenAI:
		values = map[string]string{EnvOpenAIAPIKey: c.LLM.APIKey}
	default:
		return &ConfigError{Vars: []string{EnvProvider}, Reason: fmt.Sprintf("unsupported provider %q", c.LLM.Provider)}
	}

	var missing []string
	for _, name := range RequiredVars(c.LLM.Provider) {
		if isUnset(values[name]) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Vars: missing, Reason: fmt.Sprintf("missing required configuration for %s", c.LLM.Provider)}
	}
	if c.LLM.MaxTokens <= 0 {
		return &ConfigError{Vars: []string{EnvMaxTokens}, Reason: "must be > 0"}
	}
	return nil
}

func isUnset(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	_, ok := placeholders[value]
	return ok
}

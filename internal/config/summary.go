package config

import (
	"fmt"
	"strings"
)

// Field is one display row of the configuration summary.
type Field struct {
	Name  string
	Value string
}

// Summary returns the settings worth printing before a run, with secrets masked.
func (c *Config) Summary() []Field {
	fields := []Field{
		{Name: "Provider", Value: string(c.LLM.Provider)},
		{Name: "Model", Value: c.LLM.Model},
		{Name: "API Base", Value: c.LLM.Endpoint},
		{Name: "API Key", Value: MaskSecret(c.LLM.APIKey)},
	}
	if c.LLM.Provider == ProviderAzure {
		fields = append(fields, Field{Name: "API Version", Value: c.LLM.APIVersion})
	}
	return append(fields,
		Field{Name: "Temperature", Value: fmt.Sprint(c.LLM.Temperature)},
		Field{Name: "Max Tokens", Value: fmt.Sprint(c.LLM.MaxTokens)},
		Field{Name: "Agent", Value: strings.TrimSpace(c.Agent.Name + " " + c.Agent.Version)},
	)
}

// MaskSecret keeps the first and last four characters of long secrets and hides short ones entirely.
func MaskSecret(s string) string {
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}

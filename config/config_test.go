package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderAzure, cfg.LLM.Provider)
	assert.Equal(t, 1024, cfg.Chunk.MaxTokens)
	assert.Equal(t, 10, cfg.Chunk.OverlapTokens)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
	assert.Equal(t, StoreMemory, cfg.VectorStore)
	assert.Equal(t, "finsight_session", cfg.Auth.CookieName)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("port: \"9090\"\nllm:\n  provider: openai\n  model: gpt-4o-mini\nvector_store: weaviate\nweaviate_store_config:\n  host: http://weaviate:8080\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("AZURE_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("WEAVIATE_APIKEY", "wv-key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "secret", cfg.SessionSecret)
	assert.Equal(t, "http://weaviate:8080", cfg.WeaviateStoreConfig.Host)
	assert.Equal(t, "wv-key", cfg.WeaviateStoreConfig.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RequiresBlobAndSession(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderGemini}, GeminiAPIKey: "k"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_CONNECTION_STRING")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{
		LLM:                   LLMConfig{Provider: "llama"},
		AzureConnectionString: "conn",
		SessionSecret:         "s",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestValidateBackends_IgnoresServerSecrets(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: ProviderOpenAI}, OpenAIAPIKey: "sk"}
	assert.NoError(t, cfg.ValidateBackends())

	cfg.UserStore = StoreMongo
	err := cfg.ValidateBackends()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")
}

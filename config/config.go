package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"

	StoreMemory   = "memory"
	StoreWeaviate = "weaviate"
	StoreMongo    = "mongo"
)

type Config struct {
	Port                  string              `mapstructure:"port"`
	UploadDir             string              `mapstructure:"upload_dir"`
	FrontendURL           string              `mapstructure:"frontend_url"`
	LLM                   LLMConfig           `mapstructure:"llm"`
	Chunk                 ChunkConfig         `mapstructure:"chunk"`
	Retrieval             RetrievalConfig     `mapstructure:"retrieval"`
	VectorStore           string              `mapstructure:"vector_store"`
	WeaviateStoreConfig   WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
	UserStore             string              `mapstructure:"user_store"`
	MongoURI              string              `mapstructure:"MONGODB_URI"`
	Blob                  BlobConfig          `mapstructure:"blob"`
	Auth                  AuthConfig          `mapstructure:"auth"`
	Log                   LogConfig           `mapstructure:"log"`
	AzureConnectionString string              `mapstructure:"AZURE_CONNECTION_STRING"`
	SessionSecret         string              `mapstructure:"SESSION_SECRET"`
	GoogleClientID        string              `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string              `mapstructure:"GOOGLE_CLIENT_SECRET"`
	RedirectURI           string              `mapstructure:"REDIRECT_URI"`
	OpenAIAPIKey          string              `mapstructure:"OPENAI_API_KEY"`
	AzureEndpoint         string              `mapstructure:"AZURE_ENDPOINT"`
	GeminiAPIKey          string              `mapstructure:"GEMINI_API_KEY"`
}

type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	APIVersion     string `mapstructure:"api_version"`
	BaseURL        string `mapstructure:"base_url"`
}

type ChunkConfig struct {
	MaxTokens     int `mapstructure:"max_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

type WeaviateStoreConfig struct {
	Host     string `mapstructure:"host"`
	APIKey   string `mapstructure:"WEAVIATE_APIKEY"`
	Text2Vec string `mapstructure:"text2vec"`
}

type BlobConfig struct {
	Container string `mapstructure:"container"`
}

type AuthConfig struct {
	CookieName    string `mapstructure:"cookie_name"`
	SessionHours  int    `mapstructure:"session_hours"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var envKeys = []string{
	"OPENAI_API_KEY",
	"AZURE_ENDPOINT",
	"GEMINI_API_KEY",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"REDIRECT_URI",
	"AZURE_CONNECTION_STRING",
	"SESSION_SECRET",
	"MONGODB_URI",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("frontend_url", "http://localhost:3000/chatbot")
	v.SetDefault("llm.provider", ProviderAzure)
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.embedding_model", "text-embedding-ada-002")
	v.SetDefault("llm.api_version", "2023-07-01-preview")
	v.SetDefault("chunk.max_tokens", 1024)
	v.SetDefault("chunk.overlap_tokens", 10)
	v.SetDefault("retrieval.top_k", 2)
	v.SetDefault("vector_store", StoreMemory)
	v.SetDefault("weaviate_store_config.text2vec", "none")
	v.SetDefault("user_store", StoreMemory)
	v.SetDefault("auth.cookie_name", "finsight_session")
	v.SetDefault("auth.session_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads the yaml file at configPath (optional) and overlays
// environment variables. An empty path uses defaults and the environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set up Viper to read from environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Bind environment variables
	for _, key := range envKeys {
		v.BindEnv(key)
	}
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.AzureConnectionString == "" {
		errs = append(errs, errors.New("AZURE_CONNECTION_STRING is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	errs = append(errs, c.ValidateBackends())
	return errors.Join(errs...)
}

// ValidateBackends checks the model provider and store settings shared by
// the server and the CLI commands.
func (c *Config) ValidateBackends() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required"))
		}
	case ProviderAzure:
		if c.OpenAIAPIKey == "" || c.AzureEndpoint == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY and AZURE_ENDPOINT are required"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.VectorStore == StoreWeaviate && c.WeaviateStoreConfig.Host == "" {
		errs = append(errs, errors.New("weaviate_store_config.host is required"))
	}
	if c.UserStore == StoreMongo && c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	return errors.Join(errs...)
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultPGHost            = "127.0.0.1"
	DefaultPGPort            = 5432
	DefaultPGUser            = "postgres"
	DefaultPGDatabase        = "chatbot_saas"
	DefaultPGSSLMode         = "disable"
	DefaultPGMaxConns        = 10
	DefaultQdrantHost        = "127.0.0.1"
	DefaultQdrantPort        = 6334
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultCompletionModel   = "gpt-4o-mini"
	DefaultEmbeddingModel    = "text-embedding-3-small"
	DefaultEmbeddingDims     = 1536
	DefaultRetrievalTopK     = 4
	DefaultChunkWords        = 500
	DefaultChunkOverlap      = 50
	DefaultMemoryWindow      = 6
	DefaultMemoryExpiry      = "72h"
	DefaultMemorySweep       = "@every 1h"
	DefaultGraphBaseURL      = "https://graph.facebook.com/v16.0"
	DefaultMessengerTextSize = 2000
	DefaultDedupeTTL         = "10m"
	DefaultSystemPrompt      = "You are a helpful assistant."

	RetrievalBackendQdrant = "qdrant"
	RetrievalBackendNone   = "none"

	CompletionProviderOpenAI = "openai"
	CompletionProviderMock   = "mock"

	MemoryBackendPostgres = "postgres"
	MemoryBackendLocal    = "local"
)

type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Auth       AuthConfig       `toml:"auth"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Qdrant     QdrantConfig     `toml:"qdrant"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Completion CompletionConfig `toml:"completion"`
	Memory     MemoryConfig     `toml:"memory"`
	Messenger  MessengerConfig  `toml:"messenger"`
	Secrets    SecretsConfig    `toml:"secrets"`
	Dispatch   DispatchConfig   `toml:"dispatch"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig only verifies tokens; issuing them belongs to the account service.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
	MaxConns int32  `toml:"max_conns"`
}

// DSN renders the connection string understood by pgx and golang-migrate.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type QdrantConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	APIKey         string `toml:"api_key"`
	UseTLS         bool   `toml:"use_tls"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type RetrievalConfig struct {
	Backend      string `toml:"backend"`
	TopK         int    `toml:"top_k"`
	Timeout      string `toml:"timeout"`
	ChunkWords   int    `toml:"chunk_words"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

type EmbeddingConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	Timeout    string `toml:"timeout"`
}

type CompletionConfig struct {
	Provider    string  `toml:"provider"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
	MockReply   string  `toml:"mock_reply"`
}

type MemoryConfig struct {
	Backend       string `toml:"backend"`
	WindowSize    int    `toml:"window_size"`
	Expiry        string `toml:"expiry"`
	SweepSchedule string `toml:"sweep_schedule"`
}

type MessengerConfig struct {
	VerifyToken  string `toml:"verify_token"`
	AppSecret    string `toml:"app_secret"`
	GraphBaseURL string `toml:"graph_base_url"`
	SendTimeout  string `toml:"send_timeout"`
	TextLimit    int    `toml:"text_limit"`
	DedupeTTL    string `toml:"dedupe_ttl"`
}

// SecretsConfig holds the base64 encoded 32 byte key that seals channel credentials.
type SecretsConfig struct {
	Key string `toml:"key"`
}

type DispatchConfig struct {
	Timeout string `toml:"timeout"`
}

// Duration parses value and falls back when it is empty or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
			MaxConns: DefaultPGMaxConns,
		},
		Qdrant: QdrantConfig{
			Host:           DefaultQdrantHost,
			Port:           DefaultQdrantPort,
			TimeoutSeconds: 10,
		},
		Retrieval: RetrievalConfig{
			Backend:      RetrievalBackendQdrant,
			TopK:         DefaultRetrievalTopK,
			Timeout:      "3s",
			ChunkWords:   DefaultChunkWords,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			BaseURL:    DefaultOpenAIBaseURL,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDims,
			Timeout:    "15s",
		},
		Completion: CompletionConfig{
			Provider:    CompletionProviderOpenAI,
			BaseURL:     DefaultOpenAIBaseURL,
			Model:       DefaultCompletionModel,
			Temperature: 0.2,
			Timeout:     "30s",
		},
		Memory: MemoryConfig{
			Backend:       MemoryBackendPostgres,
			WindowSize:    DefaultMemoryWindow,
			Expiry:        DefaultMemoryExpiry,
			SweepSchedule: DefaultMemorySweep,
		},
		Messenger: MessengerConfig{
			GraphBaseURL: DefaultGraphBaseURL,
			SendTimeout:  "10s",
			TextLimit:    DefaultMessengerTextSize,
			DedupeTTL:    DefaultDedupeTTL,
		},
		Dispatch: DispatchConfig{
			Timeout: "30s",
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values.
const (
	DefaultAddr        = ":4111"
	DefaultGatewayAddr = ":3000"
	DefaultModel       = "claude-sonnet-4-20250514"
	DefaultReportModel = "claude-3-5-sonnet-20241022"
	DefaultAgentURL    = "http://localhost:4111"
	DefaultAgentID     = "stellarAgent"
	DefaultAMQPQueue   = "stellarflow.fragments"
)

// Ledger backends.
const (
	LedgerSimulated = "simulated"
	LedgerMCP       = "mcp"
)

// Config holds the process configuration.
type Config struct {
	// Server
	Addr        string
	GatewayAddr string
	LogLevel    string
	LogFormat   string

	// Model
	Provider    string
	Model       string
	ReportModel string

	AnthropicKey string
	OpenAIKey    string
	GoogleKey    string

	// Limits
	MaxSteps        int
	AgentTimeout    time.Duration
	WorkflowTimeout time.Duration
	StepTimeout     time.Duration

	// Gateway
	AgentURL string
	AgentID  string

	Stellar Stellar

	Ledger       string
	MCPConfig    string
	StellarTools bool

	// Persistence and transport
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AMQPURL       string
	AMQPQueue     string
}

// Stellar holds the settings passed to the Stellar MCP servers and used in
// the agent instructions.
type Stellar struct {
	LaunchtubeURL        string
	LaunchtubeJWT        string
	WalletWasmHash       string
	RPCURL               string
	HorizonURL           string
	NetworkPassphrase    string
	MercuryJWT           string
	MercuryURL           string
	MercuryProjectName   string
	Network              string
	ContractID           string
	WalletID             string
	AgentPolicySignerKey string
}

// Load reads a .env file if present, then the environment, and validates
// the result.
func Load() (*Config, error) {
	cfg := LoadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv reads a .env file if present, then the environment, without
// validating. The gateway uses it since it needs no provider key.
func LoadEnv() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the environment without validating.
func FromEnv() *Config {
	return &Config{
		Addr:            getEnvOrDefault("STELLARFLOW_ADDR", DefaultAddr),
		GatewayAddr:     getEnvOrDefault("GATEWAY_ADDR", DefaultGatewayAddr),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
		Provider:        getEnvOrDefault("PROVIDER", "anthropic"),
		Model:           getEnvOrDefault("MODEL", DefaultModel),
		ReportModel:     getEnvOrDefault("REPORT_MODEL", DefaultReportModel),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		GoogleKey:       os.Getenv("GOOGLE_API_KEY"),
		MaxSteps:        getEnvIntOrDefault("MAX_STEPS", 10),
		AgentTimeout:    getEnvDurationOrDefault("AGENT_TIMEOUT", 2*time.Minute),
		WorkflowTimeout: getEnvDurationOrDefault("WORKFLOW_TIMEOUT", 5*time.Minute),
		StepTimeout:     getEnvDurationOrDefault("STEP_TIMEOUT", 2*time.Minute),
		AgentURL:        getEnvOrDefault("AGENT_URL", DefaultAgentURL),
		AgentID:         getEnvOrDefault("AGENT_ID", DefaultAgentID),
		Stellar: Stellar{
			LaunchtubeURL:        os.Getenv("LAUNCHTUBE_URL"),
			LaunchtubeJWT:        os.Getenv("LAUNCHTUBE_JWT"),
			WalletWasmHash:       os.Getenv("WALLET_WASM_HASH"),
			RPCURL:               os.Getenv("RPC_URL"),
			HorizonURL:           os.Getenv("HORIZON_URL"),
			NetworkPassphrase:    os.Getenv("NETWORK_PASSPHRASE"),
			MercuryJWT:           os.Getenv("MERCURY_JWT"),
			MercuryURL:           os.Getenv("MERCURY_URL"),
			MercuryProjectName:   os.Getenv("MERCURY_PROJECT_NAME"),
			Network:              os.Getenv("NETWORK"),
			ContractID:           os.Getenv("CONTRACT_ID"),
			WalletID:             os.Getenv("WALLET_ID"),
			AgentPolicySignerKey: os.Getenv("AGENT_POLICY_SIGNER_KEY"),
		},
		Ledger:        getEnvOrDefault("LEDGER", LedgerSimulated),
		MCPConfig:     os.Getenv("MCP_CONFIG"),
		StellarTools:  getEnvBoolOrDefault("STELLAR_TOOLS", false),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
		AMQPURL:       os.Getenv("AMQP_URL"),
		AMQPQueue:     getEnvOrDefault("AMQP_QUEUE", DefaultAMQPQueue),
	}
}

// Validate checks that the configuration is usable. The model provider
// needs its API key; URL settings must be absolute when set.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case "google":
		if c.GoogleKey == "" {
			return errors.New("GOOGLE_API_KEY is required for the google provider")
		}
	default:
		return fmt.Errorf("unknown provider: %s (must be anthropic, openai or google)", c.Provider)
	}
	return c.ValidateRuntime()
}

// ValidateRuntime checks everything except the model provider. Commands
// that never call a model, such as running stellar-workflow, use it
// instead of Validate.
func (c *Config) ValidateRuntime() error {
	switch c.Ledger {
	case LedgerSimulated, LedgerMCP:
	default:
		return fmt.Errorf("unknown ledger: %s (must be simulated or mcp)", c.Ledger)
	}
	if c.MaxSteps < 0 {
		return errors.New("MAX_STEPS must not be negative")
	}

	for name, value := range map[string]string{
		"AGENT_URL":      c.AgentURL,
		"LAUNCHTUBE_URL": c.Stellar.LaunchtubeURL,
		"RPC_URL":        c.Stellar.RPCURL,
		"HORIZON_URL":    c.Stellar.HorizonURL,
		"MERCURY_URL":    c.Stellar.MercuryURL,
	} {
		if value != "" && !isURL(value) {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, value)
		}
	}

	if c.StellarTools || c.Ledger == LedgerMCP {
		return c.ValidateStellar()
	}
	return nil
}

// ValidateStellar requires every Stellar setting the MCP servers need.
func (c *Config) ValidateStellar() error {
	s := c.Stellar
	required := []struct {
		name, value string
	}{
		{"LAUNCHTUBE_URL", s.LaunchtubeURL},
		{"LAUNCHTUBE_JWT", s.LaunchtubeJWT},
		{"WALLET_WASM_HASH", s.WalletWasmHash},
		{"RPC_URL", s.RPCURL},
		{"HORIZON_URL", s.HorizonURL},
		{"NETWORK_PASSPHRASE", s.NetworkPassphrase},
		{"MERCURY_JWT", s.MercuryJWT},
		{"MERCURY_URL", s.MercuryURL},
		{"MERCURY_PROJECT_NAME", s.MercuryProjectName},
		{"NETWORK", s.Network},
		{"CONTRACT_ID", s.ContractID},
		{"WALLET_ID", s.WalletID},
		{"AGENT_POLICY_SIGNER_KEY", s.AgentPolicySignerKey},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Stellar settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case "openai":
		return c.OpenAIKey
	case "google":
		return c.GoogleKey
	default:
		return c.AnthropicKey
	}
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

const (
	DEFAULT_CONFIG_PATH = "/config/config.yaml"
	DEFAULT_ENV_FILE    = ".env"

	DEFAULT_LOG_LEVEL     = "info"
	DEFAULT_SERVER_PORT   = 3000
	DEFAULT_MAX_BODY_SIZE = "100KB"

	// Only meant for local testing, real deployments need to override it.
	DEFAULT_WEBHOOK_SECRET = "your-secret-key"
)

const (
	ENV_PORT           = "PORT"
	ENV_WEBHOOK_SECRET = "WEBHOOK_SECRET"
	ENV_LOG_LEVEL      = "LOG_LEVEL"
)

var logLevel *slog.LevelVar

// Initialize the logger
func init() {
	logLevel = &slog.LevelVar{}
	opts := slog.HandlerOptions{
		Level: logLevel,
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &opts))
	slog.SetDefault(logger)
}

type Config struct {
	LogLevel string        `json:"logLevel,omitempty"`
	Server   ServerConfig  `json:"server,omitempty"`
	Webhook  WebhookConfig `json:"webhook,omitempty"`
}

type ServerConfig struct {
	Port int       `json:"port,omitempty"`
	SSL  SSLConfig `json:"ssl,omitempty"`
	// Maximum accepted request body, e.g. "512", "100KB" or "1MB"
	MaxBodySize string `json:"maxBodySize,omitempty"`
	// Parsed value of MaxBodySize, filled in by LoadConfig
	MaxBodyBytes int64 `json:"-"`
}

type SSLConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Cert    string `json:"cert,omitempty"`
	Key     string `json:"key,omitempty"`
}

type WebhookConfig struct {
	Secret string `json:"secret,omitempty"`
}

// Returns a Config with default values set
func DefaultConfig() Config {
	return Config{
		LogLevel: DEFAULT_LOG_LEVEL,
		Server: ServerConfig{
			Port:        DEFAULT_SERVER_PORT,
			MaxBodySize: DEFAULT_MAX_BODY_SIZE,
		},
		Webhook: WebhookConfig{
			Secret: DEFAULT_WEBHOOK_SECRET,
		},
	}
}

// Loads config from file and environment, returns error if config is invalid
// Arguments:
//
//		path: Path to config file, if empty will use DEFAULT_CONFIG_PATH when it exists
//		env: Determines if enviroment variables in the file will be expanded before decoding
//	 logLevelOverride: Override the log level given by the config
//
// Values from the environment (PORT, WEBHOOK_SECRET, LOG_LEVEL) take precedence over the file.
// A .env file in the working directory is loaded first, it never overrides the real environment.
func LoadConfig(path string, env bool, logLevelOverride string) (Config, error) {
	err := loadDotEnv(DEFAULT_ENV_FILE)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load env file '%s': %w", DEFAULT_ENV_FILE, err)
	}

	c, err := loadConfigFile(path, env)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load configuration file '%s': %w", path, err)
	}

	err = c.applyEnvironment()
	if err != nil {
		return Config{}, fmt.Errorf("failed to apply environment: %w", err)
	}

	if logLevelOverride != "" {
		c.LogLevel = logLevelOverride
	}
	err = setLogLevel(c.LogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("failed to set log level to '%s': %w", c.LogLevel, err)
	}

	err = c.validate()
	if err != nil {
		return Config{}, err
	}

	if c.Webhook.Secret == DEFAULT_WEBHOOK_SECRET {
		slog.Warn("Using the default webhook secret, set " + ENV_WEBHOOK_SECRET + " for real deployments")
	}

	return c, nil
}

func loadConfigFile(path string, env bool) (Config, error) {
	c := DefaultConfig()

	p := path
	if p == "" {
		p = DEFAULT_CONFIG_PATH
	}

	// #nosec G304 -- Local users can decide on their file path themselves.
	f, err := os.ReadFile(p)
	if path == "" && os.IsNotExist(err) {
		slog.Info("No config file specified and default file does not exist, falling back to default values.", slog.String("default-path", p))
		return c, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("failed to read config file '%s': %w", p, err)
	}

	if env {
		f = []byte(os.ExpandEnv(string(f)))
	}

	err = yaml.Unmarshal(f, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config file '%s': %w", p, err)
	}

	return c, nil
}

// Load variables from the given env file into the process environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	slog.Debug("Loading environment file", slog.String("path", path))
	return godotenv.Load(path)
}

func (c *Config) applyEnvironment() error {
	if port, ok := os.LookupEnv(ENV_PORT); ok && port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", ENV_PORT, port, err)
		}
		c.Server.Port = p
	}
	if secret, ok := os.LookupEnv(ENV_WEBHOOK_SECRET); ok && secret != "" {
		c.Webhook.Secret = secret
	}
	if level, ok := os.LookupEnv(ENV_LOG_LEVEL); ok && level != "" {
		c.LogLevel = level
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.Server.Port)
	}

	if c.Server.SSL.Enabled && (c.Server.SSL.Cert == "" || c.Server.SSL.Key == "") {
		return fmt.Errorf("incomplete SSL configuration: cert and key must be set if SSL is enabled")
	}

	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret must not be empty")
	}

	size, err := ParseByteSize(c.Server.MaxBodySize)
	if err != nil {
		return fmt.Errorf("invalid maxBodySize '%s': %w", c.Server.MaxBodySize, err)
	}
	c.Server.MaxBodyBytes = size

	return nil
}

// Parse a given string and set the resulting log level
func setLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level '%s'", level)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "DATALICIOUS"
	dirName   = ".datalicious"
)

// Global configuration structure.
type Global struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Provider string `mapstructure:"provider" yaml:"provider"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model    string `mapstructure:"model" yaml:"model,omitempty"`

	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Digest construction
	DetailLevel           string `mapstructure:"detail_level" yaml:"detail_level"`
	SampleSeed            int64  `mapstructure:"sample_seed" yaml:"sample_seed"`
	RandomSampleThreshold int    `mapstructure:"random_sample_threshold" yaml:"random_sample_threshold"`

	// HTTP API
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// keyFromProviderEnv marks an APIKey taken from the provider's own
	// variable (OPENAI_API_KEY etc.). Such a key follows provider changes and
	// is never written to disk.
	keyFromProviderEnv bool
}

// providerKeyEnv maps providers to the conventional key variable each uses.
var providerKeyEnv = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"together":   "TOGETHER_API_KEY",
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"api_key", "provider", "base_url", "model", "http_timeout_sec",
	"detail_level", "sample_seed", "random_sample_threshold",
	"host", "port", "cors_origins", "log_level", "log_format",
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalicious/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	out := *c
	if out.keyFromProviderEnv {
		out.APIKey = ""
	}
	b, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, env, file and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("provider", "openrouter")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")
	v.SetDefault("http_timeout_sec", 20)
	v.SetDefault("detail_level", "normal")
	v.SetDefault("sample_seed", 42)
	v.SetDefault("random_sample_threshold", 5000)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8000)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.APIKey == "" {
		c.APIKey = ProviderKeyFromEnv(c.Provider)
		c.keyFromProviderEnv = c.APIKey != ""
	}
	return &c, nil
}

// ProviderKeyFromEnv returns the provider's conventional key variable, if set.
func ProviderKeyFromEnv(provider string) string {
	if name, ok := providerKeyEnv[provider]; ok {
		return strings.TrimSpace(os.Getenv(name))
	}
	return ""
}

// Set assigns a single key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
		c.keyFromProviderEnv = false
	case "provider":
		c.Provider = strings.ToLower(strings.TrimSpace(val))
		// An explicit key stays; one borrowed from the old provider's
		// variable is swapped for the new provider's.
		if c.APIKey == "" || c.keyFromProviderEnv {
			c.APIKey = ProviderKeyFromEnv(c.Provider)
			c.keyFromProviderEnv = c.APIKey != ""
		}
	case "base_url":
		c.BaseURL = val
	case "model":
		c.Model = val
	case "http_timeout_sec":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for http_timeout_sec: %v", val)
		}
		c.HTTPTimeoutSec = i
	case "detail_level":
		c.DetailLevel = val
	case "sample_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for sample_seed: %w", err)
		}
		c.SampleSeed = i
	case "random_sample_threshold":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for random_sample_threshold: %v", val)
		}
		c.RandomSampleThreshold = i
	case "host":
		c.Host = val
	case "port":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 || i > 65535 {
			return fmt.Errorf("invalid port: %v", val)
		}
		c.Port = i
	case "cors_origins":
		var out []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
		c.CORSOrigins = out
	case "log_level":
		c.LogLevel = val
	case "log_format":
		switch val {
		case "console", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

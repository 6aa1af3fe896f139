package judge

import (
	"fmt"
	"os"
)

// DefaultMaxOutputChars bounds how much trial output is sent to the judge.
const DefaultMaxOutputChars = 16000

type Config struct {
	Env *EnvConfig `json:"env,omitempty"`

	// MaxOutputChars caps the trial output included in the judge prompt.
	// Zero means DefaultMaxOutputChars.
	MaxOutputChars int `json:"maxOutputChars,omitempty"`
}

// EnvConfig names the environment variables holding the judge's API
// configuration, following the env-key indirection used for eval configs.
type EnvConfig struct {
	BaseUrlKey   string `json:"baseUrlKey"`
	ApiKeyKey    string `json:"apiKeyKey"`
	ModelNameKey string `json:"modelNameKey"`
}

func (cfg *Config) BaseUrl() string {
	return os.Getenv(cfg.Env.BaseUrlKey)
}

func (cfg *Config) ApiKey() string {
	return os.Getenv(cfg.Env.ApiKeyKey)
}

func (cfg *Config) ModelName() string {
	return os.Getenv(cfg.Env.ModelNameKey)
}

func (cfg *Config) maxOutputChars() int {
	if cfg.MaxOutputChars > 0 {
		return cfg.MaxOutputChars
	}
	return DefaultMaxOutputChars
}

func (cfg *Config) Validate() error {
	if cfg.Env == nil {
		return fmt.Errorf("judge config must specify env keys")
	}

	if cfg.Env.BaseUrlKey == "" || cfg.Env.ApiKeyKey == "" || cfg.Env.ModelNameKey == "" {
		return fmt.Errorf("judge env config must set baseUrlKey, apiKeyKey, and modelNameKey")
	}

	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/gitnexus/gitnexus/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".gitnexus", "config.json")
	DefaultDataDir    = filepath.Join(home, ".gitnexus")
	DefaultHTTPAddr   = "localhost:7431"
	DefaultLogFile    = filepath.Join(home, ".gitnexus", "logs", "gitnexus.log")
)

type Config struct {
	DataDir string `json:"data_dir"`

	// GithubToken is the bearer credential for the contents API.
	GithubToken string `json:"github_token"`

	// GeminiAPIKey enables the chat relay; empty disables it.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// HTTPAddr is the control plane bind address.
	HTTPAddr string `json:"http_addr"`

	// HTTPToken guards the control plane; empty disables auth.
	HTTPToken string `json:"http_token,omitempty"`

	Path string `json:"-"`
}

func (c *Config) Validate() error {
	if c.GithubToken == "" {
		return errors.New("config: github token is required")
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	// holds a credential
	return os.WriteFile(path, data, 0600)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}

package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries everything the key management core needs to run outside
// of tests: where the sealed key store lives, how to reach the key
// directory, and where the public-key cache persists.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Directory DirectoryConfig `yaml:"directory"`
	Cache     CacheConfig     `yaml:"cache"`
}

type StoreConfig struct {
	Path       string `yaml:"path"`
	Passphrase string `yaml:"passphrase"`
}

type DirectoryConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	PublishRPS     float64       `yaml:"publishRps"`
	PublishBurst   int           `yaml:"publishBurst"`
}

type CacheConfig struct {
	Path string `yaml:"path"`
}

func Default() Config {
	return Config{
		Store: StoreConfig{Path: "data/keys.enc"},
		Directory: DirectoryConfig{
			RequestTimeout: 10 * time.Second,
			PublishRPS:     1,
			PublishBurst:   3,
		},
		Cache: CacheConfig{Path: "data/pubkeys.json"},
	}
}

// Load reads configPath (or the default locations when empty), merges it
// over the defaults and applies environment overrides last.
func Load(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates, "configs/config.yaml", "config.yaml")
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		merge(&cfg, parsed)
		break
	}

	applyEnvOverrides(&cfg)
	return cfg
}

func merge(dst *Config, src Config) {
	if src.Store.Path != "" {
		dst.Store.Path = src.Store.Path
	}
	if src.Store.Passphrase != "" {
		dst.Store.Passphrase = src.Store.Passphrase
	}
	if src.Directory.URL != "" {
		dst.Directory.URL = src.Directory.URL
	}
	if src.Directory.RequestTimeout != 0 {
		dst.Directory.RequestTimeout = src.Directory.RequestTimeout
	}
	if src.Directory.PublishRPS != 0 {
		dst.Directory.PublishRPS = src.Directory.PublishRPS
	}
	if src.Directory.PublishBurst != 0 {
		dst.Directory.PublishBurst = src.Directory.PublishBurst
	}
	if src.Cache.Path != "" {
		dst.Cache.Path = src.Cache.Path
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("GIGCHAT_DIRECTORY_URL")); v != "" {
		cfg.Directory.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("GIGCHAT_STORE_PATH")); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("GIGCHAT_STORE_PASSPHRASE"); v != "" {
		cfg.Store.Passphrase = v
	}
	if v := strings.TrimSpace(os.Getenv("GIGCHAT_CACHE_PATH")); v != "" {
		cfg.Cache.Path = v
	}
}

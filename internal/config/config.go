// Package config loads mindora-user settings from defaults, a YAML file,
// a .env file and MINDORA_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xielang86/mindora-user/internal/engine"
	"github.com/xielang86/mindora-user/internal/model"
	"github.com/xielang86/mindora-user/internal/server"
)

// Config is the full mindora-user configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Profile ProfileConfig `yaml:"profile"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig locates the profile database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the WebSocket and HTTP listeners.
type ServerConfig struct {
	WSAddr       string        `yaml:"ws_addr"`
	HTTPAddr     string        `yaml:"http_addr"`
	ReadLimit    int64         `yaml:"read_limit"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ProfileConfig sets the merge policy applied to updates.
type ProfileConfig struct {
	MaxBehaviorLen      int      `yaml:"max_behavior_len"`
	EmbeddingReplaceLen int      `yaml:"embedding_replace_len"`
	DefaultChannels     []string `yaml:"default_channels"`
}

// LogConfig configures log output.
type LogConfig struct {
	File string `yaml:"file"` // empty logs to stderr only
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{Path: filepath.Join(Dir(), "profiles.db")},
		Server: ServerConfig{
			WSAddr:       server.DefaultWSAddr,
			HTTPAddr:     server.DefaultHTTPAddr,
			ReadLimit:    server.DefaultReadLimit,
			WriteTimeout: server.DefaultWriteTimeout,
		},
		Profile: ProfileConfig{
			MaxBehaviorLen:      engine.DefaultMaxBehaviorLen,
			EmbeddingReplaceLen: engine.DefaultEmbeddingReplaceLen,
			DefaultChannels:     slices.Clone(model.DefaultChannels),
		},
	}
}

// Dir is the per-user state directory, ~/.mindora-user.
func Dir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".mindora-user")
}

// DefaultPath is where Load looks when no config file is named.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load builds the effective configuration. path names a YAML file; when empty,
// $MINDORA_CONFIG and then DefaultPath are tried, and a missing default file
// is not an error. Variables from ./.env never override the real environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if path = os.Getenv("MINDORA_CONFIG"); path != "" {
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MINDORA_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MINDORA_WS_ADDR"); v != "" {
		cfg.Server.WSAddr = v
	}
	if v := os.Getenv("MINDORA_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("MINDORA_READ_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MINDORA_READ_LIMIT: %w", err)
		}
		cfg.Server.ReadLimit = n
	}
	if v := os.Getenv("MINDORA_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MINDORA_WRITE_TIMEOUT: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}
	if v := os.Getenv("MINDORA_MAX_BEHAVIOR_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MINDORA_MAX_BEHAVIOR_LEN: %w", err)
		}
		cfg.Profile.MaxBehaviorLen = n
	}
	if v := os.Getenv("MINDORA_EMBEDDING_REPLACE_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MINDORA_EMBEDDING_REPLACE_LEN: %w", err)
		}
		cfg.Profile.EmbeddingReplaceLen = n
	}
	if v := os.Getenv("MINDORA_DEFAULT_CHANNELS"); v != "" {
		var chans []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				chans = append(chans, c)
			}
		}
		cfg.Profile.DefaultChannels = chans
	}
	if v := os.Getenv("MINDORA_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Server.WSAddr == "" && c.Server.HTTPAddr == "" {
		return errors.New("at least one of server.ws_addr and server.http_addr is required")
	}
	if c.Server.ReadLimit <= 0 {
		return fmt.Errorf("server.read_limit must be positive, got %d", c.Server.ReadLimit)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Profile.MaxBehaviorLen <= 0 {
		return fmt.Errorf("profile.max_behavior_len must be positive, got %d", c.Profile.MaxBehaviorLen)
	}
	if c.Profile.EmbeddingReplaceLen <= 0 {
		return fmt.Errorf("profile.embedding_replace_len must be positive, got %d", c.Profile.EmbeddingReplaceLen)
	}
	for _, ch := range c.Profile.DefaultChannels {
		if strings.TrimSpace(ch) == "" {
			return errors.New("profile.default_channels contains an empty name")
		}
	}
	return nil
}

// Package config loads and saves the TOML configuration shared by the
// server and client commands.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/units"
	"github.com/makew0rld/merkvault/logging"
	"github.com/makew0rld/merkvault/merkle"
)

type Config struct {
	// Hash algorithm, see merkle.ParseAlgorithm. Server and client must agree.
	Hash   string       `toml:"hash"`
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Path        string `toml:"path"` // directory uploaded files are stored in
	Port        uint16 `toml:"port"`
	TimeoutS    int    `toml:"timeout_s"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

type ClientConfig struct {
	FilesPath  string `toml:"files_path"`  // local files to upload, and where downloads go
	MerklePath string `toml:"merkle_path"` // file holding the root digest
	URL        string `toml:"url"`
	Retries    uint64 `toml:"retries"`
}

type LogConfig struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"` // empty logs to stdout only
}

func Default() Config {
	return Config{
		Hash: string(merkle.SHA256),
		Server: ServerConfig{
			Path:        "server_files",
			Port:        3000,
			TimeoutS:    30,
			MaxUploadMB: 64,
		},
		Client: ClientConfig{
			FilesPath:  "client_files",
			MerklePath: "merkle.bin",
			URL:        "http://localhost:3000",
			Retries:    5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path on top of the defaults, so missing keys keep
// their default values.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("failed to load config: %w", err)
	}
	return c, c.Validate()
}

// Save writes c to path as TOML.
func (c Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (c Config) Validate() error {
	if _, err := merkle.ParseAlgorithm(c.Hash); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.TimeoutS <= 0 {
		return fmt.Errorf("server timeout must be positive, got %d", c.Server.TimeoutS)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// Algorithm returns the parsed hash algorithm. Call Validate first.
func (c Config) Algorithm() merkle.Algorithm {
	alg, _ := merkle.ParseAlgorithm(c.Hash)
	return alg
}

// MaxUploadBytes is the request body limit for uploads.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) * int64(units.MiB)
}

// Logger builds the logger described by the [log] section.
func (c Config) Logger() (logging.LoggerI, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(logging.Config{Level: level}, c.Log.Dir)
}

// Package config loads client and dev server settings.
//
// Sources are applied in order: defaults, optional YAML file, AUTOPARK_*
// environment variables. Command line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AUTOPARK_"

// Log describes logger settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Client is the configuration of the command line client.
type Client struct {
	ServerURL    string        `yaml:"server_url"`
	DBPath       string        `yaml:"db"`
	Passphrase   string        `yaml:"passphrase"`
	Log          Log           `yaml:"log"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Server is the configuration of the development API server.
type Server struct {
	Addr       string        `yaml:"addr"`
	DBPath     string        `yaml:"db"`
	JWTSecret  string        `yaml:"jwt_secret"`
	UploadDir  string        `yaml:"upload_dir"`
	PublicURL  string        `yaml:"public_url"`
	Log        Log           `yaml:"log"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	// AuthRateLimit запросов в минуту на IP для /auth/login и /auth/register
	AuthRateLimit int `yaml:"auth_rate_limit"`
}

// LookupFunc is os.LookupEnv; tests substitute it.
type LookupFunc func(key string) (string, bool)

// DefaultClient returns the client defaults.
func DefaultClient() Client {
	return Client{
		ServerURL:    "http://localhost:8080",
		DBPath:       defaultDataPath("client.db"),
		Timeout:      30 * time.Second,
		PollInterval: 5 * time.Second,
		Log:          Log{Level: "warn", Format: "text"},
	}
}

// DefaultServer returns the dev server defaults.
func DefaultServer() Server {
	return Server{
		Addr:          ":8080",
		DBPath:        "autopark-server.db",
		UploadDir:     "uploads",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		AuthRateLimit: 10,
		Log:           Log{Level: "info", Format: "text"},
	}
}

// DefaultClientConfigPath returns ~/.config/autopark/config.yaml.
func DefaultClientConfigPath() string {
	return defaultDataPath("config.yaml")
}

// LoadClient reads the client configuration.
// An empty path means DefaultClientConfigPath; a missing default file is not an error.
func LoadClient(path string) (Client, error) {
	return loadClient(path, os.LookupEnv)
}

func loadClient(path string, lookup LookupFunc) (Client, error) {
	cfg := DefaultClient()

	optional := path == ""
	if optional {
		path = DefaultClientConfigPath()
	}
	if err := readYAML(path, optional, &cfg); err != nil {
		return Client{}, err
	}

	env := envReader{lookup: lookup}
	env.str("SERVER_URL", &cfg.ServerURL)
	env.str("DB", &cfg.DBPath)
	env.str("PASSPHRASE", &cfg.Passphrase)
	env.duration("TIMEOUT", &cfg.Timeout)
	env.duration("POLL_INTERVAL", &cfg.PollInterval)
	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.str("LOG_FORMAT", &cfg.Log.Format)
	env.str("LOG_FILE", &cfg.Log.File)
	if env.err != nil {
		return Client{}, env.err
	}

	return cfg, nil
}

// LoadServer reads the dev server configuration. An empty path skips the file.
func LoadServer(path string) (Server, error) {
	return loadServer(path, os.LookupEnv)
}

func loadServer(path string, lookup LookupFunc) (Server, error) {
	cfg := DefaultServer()

	if path != "" {
		if err := readYAML(path, false, &cfg); err != nil {
			return Server{}, err
		}
	}

	env := envReader{lookup: lookup}
	env.str("ADDR", &cfg.Addr)
	env.str("DB", &cfg.DBPath)
	env.str("JWT_SECRET", &cfg.JWTSecret)
	env.str("UPLOAD_DIR", &cfg.UploadDir)
	env.str("PUBLIC_URL", &cfg.PublicURL)
	env.duration("ACCESS_TTL", &cfg.AccessTTL)
	env.duration("REFRESH_TTL", &cfg.RefreshTTL)
	env.integer("AUTH_RATE_LIMIT", &cfg.AuthRateLimit)
	env.str("LOG_LEVEL", &cfg.Log.Level)
	env.str("LOG_FORMAT", &cfg.Log.Format)
	env.str("LOG_FILE", &cfg.Log.File)
	if env.err != nil {
		return Server{}, env.err
	}

	return cfg, nil
}

// Validate проверяет обязательные параметры сервера
func (s Server) Validate() error {
	if s.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (set %sJWT_SECRET)", EnvPrefix)
	}
	if len(s.JWTSecret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if s.AccessTTL <= 0 || s.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}

func readYAML(path string, optional bool, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func defaultDataPath(name string) string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = "."
	}
	return filepath.Join(configDir, "autopark", name)
}

// envReader применяет переменные окружения, запоминая первую ошибку разбора
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(EnvPrefix + key); ok && v != "" {
		*dst = v
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok || v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = d
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok || v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		return
	}
	*dst = n
}

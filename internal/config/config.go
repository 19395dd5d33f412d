package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/vigenere-go/internal/encryption"
)

// Version is reported by the CLI and the health endpoint
const Version = "1.0.0"

// CipherConfig selects the alphabet and I/O chunking
type CipherConfig struct {
	Alphabet  string `json:"alphabet" mapstructure:"alphabet"`     // preset name
	Charset   string `json:"charset" mapstructure:"charset"`       // literal set, overrides alphabet
	ChunkSize int    `json:"chunk_size" mapstructure:"chunk_size"` // bytes
}

// MirrorConfig controls directory mirroring
type MirrorConfig struct {
	Workers int `json:"workers" mapstructure:"workers"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console, json
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Address   string `json:"address" mapstructure:"address"`
	Port      int    `json:"port" mapstructure:"port"`
	EnableH2C bool   `json:"enable_h2c" mapstructure:"enable_h2c"`
	Gzip      bool   `json:"gzip" mapstructure:"gzip"`
}

// JournalConfig controls the run journal
type JournalConfig struct {
	Enable bool `json:"enable" mapstructure:"enable"`
}

// Config represents the main configuration
type Config struct {
	Cipher    CipherConfig  `json:"cipher" mapstructure:"cipher"`
	Mirror    MirrorConfig  `json:"mirror" mapstructure:"mirror"`
	Log       LogConfig     `json:"log" mapstructure:"log"`
	Server    ServerConfig  `json:"server" mapstructure:"server"`
	Journal   JournalConfig `json:"journal" mapstructure:"journal"`
	DataDir   string        `json:"data_dir" mapstructure:"data_dir"`
	JWTSecret string        `json:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpire int           `json:"jwt_expire" mapstructure:"jwt_expire"` // hours
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	// Cipher defaults
	v.SetDefault("cipher.alphabet", encryption.CharsetDefault)
	v.SetDefault("cipher.charset", "")
	v.SetDefault("cipher.chunk_size", encryption.DefaultChunkSize)

	// Mirror defaults
	v.SetDefault("mirror.workers", 1)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Server defaults
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 5380)
	v.SetDefault("server.enable_h2c", false)
	v.SetDefault("server.gzip", true)

	// Other defaults
	v.SetDefault("journal.enable", false)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expire", 24)
}

// Load reads file when given, otherwise searches for config.{json,yaml} in
// the working directory, ./configs and $HOME/.vigenere.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vigenere")
	}
	return LoadFrom(v)
}

// LoadFrom applies defaults and environment overrides to v, reads its config
// file if one is set or found, and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Environment variables
	v.SetEnvPrefix("VIGENERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Msg("Config file not found, using defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.ResolveCharset(); err != nil {
		return err
	}
	if c.Cipher.ChunkSize <= 0 {
		return fmt.Errorf("cipher.chunk_size must be positive, got %d", c.Cipher.ChunkSize)
	}
	if c.Mirror.Workers <= 0 {
		return fmt.Errorf("mirror.workers must be positive, got %d", c.Mirror.Workers)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// ResolveCharset returns the literal charset if set, otherwise the preset
func (c *Config) ResolveCharset() (string, error) {
	if c.Cipher.Charset != "" {
		return c.Cipher.Charset, nil
	}
	return encryption.LookupCharset(c.Cipher.Alphabet)
}

// GetHTTPAddr returns the HTTP listen address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// IsAuthEnabled returns whether the API requires bearer tokens
func (c *Config) IsAuthEnabled() bool {
	return c.JWTSecret != ""
}

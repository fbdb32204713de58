package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Org      OrgConfig
	Log      LogConfig
	AI       AIConfig
	Sync     SyncConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds REST API settings.
type ServerConfig struct {
	Port int
}

// OrgConfig names the business on reports and sets its calendar.
type OrgConfig struct {
	Name     string
	Currency string
	Timezone string
}

// LogConfig holds logging settings.
type LogConfig struct {
	File   string
	Level  string
	Stdout bool
}

// AIConfig holds Gemini settings. An empty key disables the advisor.
type AIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string
}

// SyncConfig holds ledger webhook settings.
type SyncConfig struct {
	Timeout time.Duration
}

// Location resolves the organisation's timezone, falling back to UTC
func (o OrgConfig) Location() *time.Location {
	if o.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from .env, an optional config file and the
// environment. Env var overrides use prefix FLEETBOOK_, e.g. FLEETBOOK_ORG_NAME.
func Load(cfgFile string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("database.path", "fleetbook.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("org.name", "Ansh Tours")
	v.SetDefault("org.currency", "₹")
	v.SetDefault("org.timezone", "Asia/Kolkata")
	v.SetDefault("log.file", filepath.Join("logs", "fleetbook.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", false)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("sync.timeout", 15*time.Second)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("fleetbook")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fleetbook"))
		}
	}

	v.SetEnvPrefix("FLEETBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// The Gemini SDK convention wins when our own key is unset
	if v.GetString("ai.api_key") == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			v.Set("ai.api_key", key)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Fiore Invoice Manager"`
		Port      int    `envconfig:"PORT" default:"8080"`
		PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`
	}

	API struct {
		URL         string        `envconfig:"API_URL" default:"https://fioreinvoicemanager.onrender.com"`
		Timeout     time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
		RefreshPath string        `envconfig:"API_REFRESH_PATH" default:"/auth/refresh-token"`
		UploadPath  string        `envconfig:"API_UPLOAD_PATH" default:"/files/upload"`
	}

	Auth struct {
		AllowedOrigins []string      `envconfig:"AUTH_ALLOWED_ORIGINS" default:"http://localhost:3000,https://fioreinvoicemanager.vercel.app,https://fioreinvoicemanager.onrender.com"`
		LoginTimeout   time.Duration `envconfig:"AUTH_LOGIN_TIMEOUT" default:"5m"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Profile struct {
		Backend string `envconfig:"PROFILE_BACKEND" default:"file"`
		Path    string `envconfig:"PROFILE_PATH"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"fiore"`
	}
}

// APIBaseURL is the root every invoicing API path is resolved against.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.API.URL, "/") + "/api"
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// ProfilePath returns the file backend location, defaulting to the user config dir.
func (c *Config) ProfilePath() (string, error) {
	if c.Profile.Path != "" {
		return c.Profile.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}

	return filepath.Join(dir, "fiore", "profile.json"), nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Profile.Backend {
	case BackendFile, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown profile backend: %s", cfg.Profile.Backend)
	}

	return &cfg, nil
}

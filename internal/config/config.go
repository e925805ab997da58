// Package config loads the process configuration.
//
// Values are layered, later sources overriding earlier ones:
//   - built-in defaults
//   - a YAML file named by --config or WEFIXIT_CONFIG
//   - environment variables
//   - command-line flags
//
// The result is an immutable value passed to constructors; nothing reads
// configuration after startup.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/and161185/wefixit/internal/crypto"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// EnvConfigFile names the YAML config file when --config is absent.
const EnvConfigFile = "WEFIXIT_CONFIG"

// Config is the process configuration.
type Config struct {
	ProjectName string `yaml:"project_name"`
	Addr        string `yaml:"addr"`
	// HealthAddr is the gRPC health listener; empty disables it.
	HealthAddr string `yaml:"health_addr"`
	Dev        bool   `yaml:"dev"`

	Store       string `yaml:"store"`
	DatabaseURL string `yaml:"database_url"`

	SecretKey          string `yaml:"secret_key"`
	Algorithm          string `yaml:"algorithm"`
	AccessTokenMinutes int    `yaml:"access_token_expire_minutes"`

	CORSOrigins   []string `yaml:"cors_origins"`
	UploadDir     string   `yaml:"upload_dir"`
	PublicBaseURL string   `yaml:"public_base_url"`
	MaxUploadSize int64    `yaml:"max_upload_bytes"`

	BootstrapUsername string `yaml:"bootstrap_admin_username"`
	BootstrapPassword string `yaml:"bootstrap_admin_password"`
}

// Default returns the built-in configuration. SecretKey is left empty.
func Default() Config {
	return Config{
		ProjectName:        "WeFixIt API",
		Addr:               ":5000",
		Store:              StorePostgres,
		Algorithm:          "HS256",
		AccessTokenMinutes: 60,
		CORSOrigins:        []string{"*"},
		UploadDir:          "uploads",
		PublicBaseURL:      "http://localhost:5000",
		MaxUploadSize:      10 << 20,
		BootstrapUsername:  "admin",
		BootstrapPassword:  "admin123",
	}
}

// AccessTTL is the token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// Validate reports configuration that cannot start the service.
func (c Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required (SECRET_KEY or --secret-key)"))
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported algorithm %q", c.Algorithm))
	}
	if c.AccessTokenMinutes <= 0 {
		errs = append(errs, fmt.Errorf("access token TTL must be positive, got %d", c.AccessTokenMinutes))
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize))
	}
	if len(c.BootstrapPassword) > crypto.MaxPasswordBytes {
		errs = append(errs, fmt.Errorf("bootstrap admin password exceeds %d bytes", crypto.MaxPasswordBytes))
	}
	return errors.Join(errs...)
}

// Load builds the configuration for a command named name from args
// (without the program name) and the process environment.
func Load(name string, args []string) (Config, error) {
	return load(name, args, os.LookupEnv, os.ReadFile)
}

// ErrUsage marks command-line errors already reported by the flag parser.
var ErrUsage = errors.New("usage")

// LoadExitCode reports a Load failure on w and returns the process exit
// code: 0 for --help, 2 otherwise. Flag errors are printed by the parser
// itself and are not repeated.
func LoadExitCode(w io.Writer, name string, err error) int {
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		fmt.Fprintf(w, "%s: %v\n", name, err)
		return 2
	}
}

type lookupFunc func(string) (string, bool)

func load(name string, args []string, lookup lookupFunc, readFile func(string) ([]byte, error)) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configFile := fs.String("config", "", "YAML config file (env "+EnvConfigFile+")")
	fs.String("project-name", cfg.ProjectName, "name reported by GET /")
	fs.String("addr", cfg.Addr, "HTTP listen address")
	fs.String("health-addr", cfg.HealthAddr, "gRPC health listen address (empty disables)")
	fs.Bool("dev", cfg.Dev, "development logging")
	fs.String("store", cfg.Store, "document store: postgres or memory")
	fs.String("database-url", "", "PostgreSQL DSN")
	fs.String("secret-key", "", "token signing key")
	fs.String("algorithm", cfg.Algorithm, "token signing algorithm (HS256, HS384, HS512)")
	fs.Int("access-token-expire-minutes", cfg.AccessTokenMinutes, "access token TTL in minutes")
	fs.StringSlice("cors-origins", cfg.CORSOrigins, "allowed CORS origins")
	fs.String("upload-dir", cfg.UploadDir, "directory for uploaded images")
	fs.String("public-base-url", cfg.PublicBaseURL, "base URL used in image links")
	fs.Int64("max-upload-bytes", cfg.MaxUploadSize, "request body limit, uploads included")
	fs.String("bootstrap-admin-username", cfg.BootstrapUsername, "admin created on startup if absent")
	fs.String("bootstrap-admin-password", cfg.BootstrapPassword, "password of the bootstrap admin")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	path := *configFile
	if path == "" {
		path, _ = lookup(EnvConfigFile)
	}
	if path != "" {
		b, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := applyFlags(&cfg, fs); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(c *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str("PROJECT_NAME", &c.ProjectName)
	str("ADDR", &c.Addr)
	str("HEALTH_ADDR", &c.HealthAddr)
	str("STORE", &c.Store)
	str("DATABASE_URL", &c.DatabaseURL)
	str("SECRET_KEY", &c.SecretKey)
	str("ALGORITHM", &c.Algorithm)
	str("UPLOAD_DIR", &c.UploadDir)
	str("PUBLIC_BASE_URL", &c.PublicBaseURL)
	str("BOOTSTRAP_ADMIN_USERNAME", &c.BootstrapUsername)
	str("BOOTSTRAP_ADMIN_PASSWORD", &c.BootstrapPassword)

	if v, ok := lookup("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		c.AccessTokenMinutes = n
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadSize = n
	}
	if v, ok := lookup("DEV"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DEV: %w", err)
		}
		c.Dev = b
	}
	return nil
}

// applyFlags copies only the flags set on the command line.
func applyFlags(c *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "project-name":
			c.ProjectName, err = fs.GetString(f.Name)
		case "addr":
			c.Addr, err = fs.GetString(f.Name)
		case "health-addr":
			c.HealthAddr, err = fs.GetString(f.Name)
		case "dev":
			c.Dev, err = fs.GetBool(f.Name)
		case "store":
			c.Store, err = fs.GetString(f.Name)
		case "database-url":
			c.DatabaseURL, err = fs.GetString(f.Name)
		case "secret-key":
			c.SecretKey, err = fs.GetString(f.Name)
		case "algorithm":
			c.Algorithm, err = fs.GetString(f.Name)
		case "access-token-expire-minutes":
			c.AccessTokenMinutes, err = fs.GetInt(f.Name)
		case "cors-origins":
			c.CORSOrigins, err = fs.GetStringSlice(f.Name)
		case "upload-dir":
			c.UploadDir, err = fs.GetString(f.Name)
		case "public-base-url":
			c.PublicBaseURL, err = fs.GetString(f.Name)
		case "max-upload-bytes":
			c.MaxUploadSize, err = fs.GetInt64(f.Name)
		case "bootstrap-admin-username":
			c.BootstrapUsername, err = fs.GetString(f.Name)
		case "bootstrap-admin-password":
			c.BootstrapPassword, err = fs.GetString(f.Name)
		}
	})
	return err
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

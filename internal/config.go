package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/linkgraph/internal/apperr"
	"github.com/starford/linkgraph/internal/pipeline"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Inputs InputsConfig      `yaml:"inputs"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Watch  WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Inputs.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// InputsConfig names the dump files of one run and where resolved edges go.
// Output "" or "-" means stdout.
type InputsConfig struct {
	pipeline.Inputs `yaml:",inline"`
	Output          string `yaml:"output"`
}

// BindArgs applies the positional form <pages> <redirects> <links> <unmatched>.
// No arguments keeps the configured inputs; any other count is a
// configuration error.
func (c *InputsConfig) BindArgs(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 4:
		c.Pages, c.Redirects, c.Links, c.Unmatched = args[0], args[1], args[2], args[3]
		return nil
	default:
		return fmt.Errorf("%w: expected 4 arguments <pages> <redirects> <links> <unmatched>, got %d",
			apperr.ErrConfig, len(args))
	}
}

// SQLiteConfig holds the path of the optional SQLite export.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether an export was configured.
func (c *SQLiteConfig) Enabled() bool {
	return c.Path != ""
}

// RequirePath fails for commands that cannot run without an export.
func (c *SQLiteConfig) RequirePath() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: sqlite: %w", apperr.ErrConfig, err)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the HTTP API is protected:
//   - "disabled" (default): no authentication.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("%w: auth: %w", apperr.ErrConfig, err)
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("%w: auth: mode is %q but token is empty", apperr.ErrConfig, AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// WatchConfig controls rebuilding the export when input dumps change.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("%w: watch: %w", apperr.ErrConfig, err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Inputs: InputsConfig{
			Output: "-",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings holds the full gateway configuration. One Settings value is
// constructed at process start, validated, and passed read-only into each
// component; nothing mutates it afterwards.
type Settings struct {
	// IRC server settings
	IRC struct {
		Server     string `yaml:"server" toml:"server" json:"server" env:"PACKETIRC_SERVER" validate:"required,hostname|ip"`
		Port       int    `yaml:"port" toml:"port" json:"port" env:"PACKETIRC_PORT" validate:"min=1,max=65535"`
		Password   string `yaml:"password" toml:"password" json:"password" env:"PACKETIRC_PASSWORD"`
		TLS        bool   `yaml:"tls" toml:"tls" json:"tls" env:"PACKETIRC_TLS"`
		MaxRetries int    `yaml:"max_retries" toml:"max_retries" json:"max_retries" env:"PACKETIRC_MAX_RETRIES" validate:"min=0"`
		RetrySecs  int    `yaml:"retry_delay" toml:"retry_delay" json:"retry_delay" env:"PACKETIRC_RETRY_DELAY" validate:"min=0"`
		HideServer bool   `yaml:"hide_server" toml:"hide_server" json:"hide_server" env:"PACKETIRC_HIDE_SERVER"`
	} `yaml:"irc" toml:"irc" json:"irc"`

	// Session defaults
	Session struct {
		Channel     string `yaml:"channel" toml:"channel" json:"channel" env:"PACKETIRC_CHANNEL"`
		IdentPrefix string `yaml:"ident_prefix" toml:"ident_prefix" json:"ident_prefix" env:"PACKETIRC_IDENT_PREFIX"`
		QuitText    string `yaml:"quit_text" toml:"quit_text" json:"quit_text"`
		PartText    string `yaml:"part_text" toml:"part_text" json:"part_text"`
		AwayText    string `yaml:"away_text" toml:"away_text" json:"away_text"`
		Welcome     string `yaml:"welcome" toml:"welcome" json:"welcome"`
	} `yaml:"session" toml:"session" json:"session"`

	// Output budget for the narrowband link
	Render struct {
		MaxLineLen int `yaml:"max_line_len" toml:"max_line_len" json:"max_line_len" env:"PACKETIRC_MAX_LINE_LEN" validate:"min=16"`
		MaxLines   int `yaml:"max_lines" toml:"max_lines" json:"max_lines" env:"PACKETIRC_MAX_LINES" validate:"min=1"`
	} `yaml:"render" toml:"render" json:"render"`

	// Content filter settings
	Filter struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"PACKETIRC_FILTER_ENABLED"`
		File    string `yaml:"file" toml:"file" json:"file" env:"PACKETIRC_FILTER_FILE"`
	} `yaml:"filter" toml:"filter" json:"filter"`

	// Callsigns granted the privileged commands
	Sysops []string `yaml:"sysops" toml:"sysops" json:"sysops" env:"PACKETIRC_SYSOPS"`

	// Local status/metrics endpoint
	Status struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"PACKETIRC_STATUS_ENABLED"`
		Host    string `yaml:"host" toml:"host" json:"host" env:"PACKETIRC_STATUS_HOST"`
		Port    int    `yaml:"port" toml:"port" json:"port" env:"PACKETIRC_STATUS_PORT"`
	} `yaml:"status" toml:"status" json:"status"`

	// Configuration source, kept for diagnostics
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Load loads, defaults, env-overrides and validates a Settings from a file.
// The format is chosen by file extension (yaml/toml/json, default yaml).
func Load(source string) (*Settings, error) {
	cfg := Default()
	cfg.Source = source

	if err := cfg.loadFromFile(source); err != nil {
		return nil, err
	}
	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Settings populated with the gateway defaults. Callers
// that have no config file can use it directly (env overrides still apply).
func Default() *Settings {
	cfg := &Settings{}
	cfg.IRC.Port = 6667
	cfg.IRC.MaxRetries = 3
	cfg.IRC.RetrySecs = 5
	cfg.IRC.HideServer = true
	cfg.Session.Channel = "#packet"
	cfg.Session.QuitText = "73"
	cfg.Session.PartText = "Leaving"
	cfg.Session.AwayText = "AFK"
	cfg.Session.Welcome = "Welcome to PacketIRC!\nType /help for a list of commands."
	cfg.Render.MaxLineLen = 78
	cfg.Render.MaxLines = 8
	cfg.Filter.File = "bad_words.txt"
	cfg.Status.Host = "127.0.0.1"
	cfg.Status.Port = 8199
	return cfg
}

// Validate checks the loaded configuration. The IRC server address is the
// only genuinely fatal field: everything else degrades.
func (c *Settings) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsSysop reports whether the given callsign appears on the special
// operator allow-list. Comparison is case-insensitive, SSID suffixes
// (N0CALL-7) are stripped first.
func (c *Settings) IsSysop(callsign string) bool {
	base := strings.ToUpper(callsign)
	if i := strings.IndexByte(base, '-'); i > 0 {
		base = base[:i]
	}
	for _, s := range c.Sysops {
		if strings.EqualFold(strings.TrimSpace(s), base) {
			return true
		}
	}
	return false
}

// ServerAddress returns the formatted IRC dial address.
func (c *Settings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.IRC.Server, c.IRC.Port)
}

// StatusAddress returns the formatted status endpoint listen address.
func (c *Settings) StatusAddress() string {
	return fmt.Sprintf("%s:%d", c.Status.Host, c.Status.Port)
}

// loadFromFile loads configuration from a file, choosing the parser by
// extension.
func (c *Settings) loadFromFile(source string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to any field carrying
// an env tag. Load calls it automatically; callers running without a
// config file use it on Default().
func ApplyEnv(cfg *Settings) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if field.PkgPath != "" {
			continue
		}

		if envTag := field.Tag.Get("env"); envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable.
func setFieldFromEnv(field reflect.Value, envValue string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var v int64
		if _, err := fmt.Sscanf(envValue, "%d", &v); err == nil {
			field.SetInt(v)
		}
	case reflect.Bool:
		s := strings.ToLower(envValue)
		field.SetBool(s == "true" || s == "1" || s == "yes" || s == "y")
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(envValue, ",")
			slice := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, v := range values {
				slice.Index(i).SetString(strings.TrimSpace(v))
			}
			field.Set(slice)
		}
	}
}

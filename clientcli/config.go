package clientcli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default endpoints of a locally running sandbox.
const (
	DefaultAuthURL   = "http://localhost:8880/authenticate"
	DefaultMasterURL = "http://localhost:8880"
)

// Profile holds configuration for a single storage service.
type Profile struct {
	Name      string `yaml:"name"`
	AuthURL   string `yaml:"auth_url"`
	MasterURL string `yaml:"master_url"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Token     string `yaml:"token,omitempty"`
	Default   bool   `yaml:"default,omitempty"`
}

// ConfigFile holds the full config file structure with multiple profiles.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// find returns the index of the named profile, or -1.
func (c *ConfigFile) find(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

func profileNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetProfile returns the named profile, or the default profile when name is
// empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	i := c.find(name)
	if i < 0 {
		return nil, profileNotFound(name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// AddProfile appends p. A profile with the same name must not exist yet.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.find(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile replaces the profile named p.Name.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	i := c.find(p.Name)
	if i < 0 {
		return profileNotFound(p.Name)
	}
	c.Profiles[i] = p
	return nil
}

// RemoveProfile removes the named profile.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.find(name)
	if i < 0 {
		return profileNotFound(name)
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks the named profile as the only default.
func (c *ConfigFile) SetDefault(name string) error {
	i := c.find(name)
	if i < 0 {
		return profileNotFound(name)
	}
	for j := range c.Profiles {
		c.Profiles[j].Default = j == i
	}
	return nil
}

// ProfileNames returns the profile names in file order.
func (c *ConfigFile) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Save writes the file with owner-only permissions, creating its directory.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile file. A missing file yields an error
// matching os.ErrNotExist.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns the default config file path (~/.volstore/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".volstore", "config.yaml")
}

// Config holds resolved client configuration for one storage service.
// This is what the Client uses after profile resolution.
type Config struct {
	AuthURL   string `validate:"required,url"`
	MasterURL string `validate:"required,url"`
	Username  string
	Password  string
	Token     string
}

var validate = validator.New()

// Validate checks that both endpoints are absolute URLs.
// Use WithDefaults() to get a config with default values applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WithDefaults returns a copy of the config with default endpoints applied.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.MasterURL == "" {
		cfg.MasterURL = DefaultMasterURL
	}
	return &cfg
}

// ValidateWithAuth checks that a token, or a username and password, are set.
func (c *Config) ValidateWithAuth() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Token != "" {
		return nil
	}
	if c.Username == "" || c.Password == "" {
		return ErrCredentialsRequired
	}
	return nil
}

// ConfigFromProfile creates a Config from a Profile.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{
		AuthURL:   p.AuthURL,
		MasterURL: p.MasterURL,
		Username:  p.Username,
		Password:  p.Password,
		Token:     p.Token,
	}
}

// ConfigFromEnv loads config from environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		AuthURL:   os.Getenv("VOLSTORE_AUTH_URL"),
		MasterURL: os.Getenv("VOLSTORE_MASTER_URL"),
		Username:  os.Getenv("VOLSTORE_USERNAME"),
		Password:  os.Getenv("VOLSTORE_PASSWORD"),
		Token:     os.Getenv("VOLSTORE_TOKEN"),
	}
}

// ProfileFromEnv returns the profile name from VOLSTORE_PROFILE environment variable.
func ProfileFromEnv() string {
	return os.Getenv("VOLSTORE_PROFILE")
}

// ConfigPathFromEnv returns the config file path from VOLSTORE_CONFIG environment variable.
func ConfigPathFromEnv() string {
	return os.Getenv("VOLSTORE_CONFIG")
}

// MergeConfig merges configs in order. A non-empty field of a later config
// overrides the same field of an earlier one.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		override(&result.AuthURL, cfg.AuthURL)
		override(&result.MasterURL, cfg.MasterURL)
		override(&result.Username, cfg.Username)
		override(&result.Password, cfg.Password)
		override(&result.Token, cfg.Token)
	}
	return result
}

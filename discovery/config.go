package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultAdminRole is required to call discovery when access is restricted
// and Config.AdminRole is empty.
const DefaultAdminRole = "gateway_admin"

// DefaultExcludePatterns hides the discovery service from its own catalog.
var DefaultExcludePatterns = []string{"DiscoveryService"}

// Registration explicitly registers a service that does not live in a
// service folder.
type Registration struct {
	// Name is the identifier the service is cataloged under.
	Name string `yaml:"name" validate:"required"`

	// Path locates the file defining the service, if any.
	Path string `yaml:"path"`

	// Type names the type or factory implementing the service.
	Type string `yaml:"type"`
}

// Config configures discovery. The engine only reads it.
type Config struct {
	// Folders are scanned recursively for service files, in order.
	Folders []string `yaml:"folders" validate:"dive,required"`

	// Registrations are enumerated after folder services, in order.
	Registrations []Registration `yaml:"registrations" validate:"dive"`

	// Exclude removes every service whose name contains one of the
	// patterns. Applied after the catalog is built.
	Exclude []string `yaml:"exclude"`

	// RestrictAccess makes discovery require AdminRole.
	RestrictAccess bool `yaml:"restrictAccess"`

	// AdminRole defaults to DefaultAdminRole.
	AdminRole string `yaml:"adminRole"`
}

// DefaultConfig returns a Config with default exclude patterns.
func DefaultConfig() Config {
	return Config{
		Exclude: append([]string(nil), DefaultExcludePatterns...),
	}
}

// Names returns the names of the explicit registrations, in order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.Registrations))
	for _, reg := range c.Registrations {
		names = append(names, reg.Name)
	}
	return names
}

// WithRegistration returns a copy of c with reg appended.
func (c Config) WithRegistration(reg Registration) Config {
	regs := make([]Registration, 0, len(c.Registrations)+1)
	regs = append(regs, c.Registrations...)
	c.Registrations = append(regs, reg)
	return c
}

func (c Config) adminRole() string {
	if c.AdminRole != "" {
		return c.AdminRole
	}
	return DefaultAdminRole
}

var validate = validator.New()

// Validate checks c for missing required fields.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// LoadConfig reads a YAML config file. Missing fields take the values of
// DefaultConfig. Relative folder and registration paths are resolved
// against the directory containing the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	base := filepath.Dir(path)
	for i, folder := range cfg.Folders {
		cfg.Folders[i] = resolvePath(base, folder)
	}
	for i, reg := range cfg.Registrations {
		if reg.Path != "" {
			cfg.Registrations[i].Path = resolvePath(base, reg.Path)
		}
	}
	return cfg, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads, expands and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document into a validated Config.
func Parse(data []byte) (*Config, error) {
	// expand $(ENV_VAR) placeholders
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks structure only. Divisors are checked per volume at run time.
func (c *Config) validate() error {
	var errs []error

	if len(c.Volumes) == 0 {
		errs = append(errs, errors.New("no volumes configured"))
	}
	seen := make(map[string]bool, len(c.Volumes))
	for i, v := range c.Volumes {
		switch {
		case v.Name == "":
			errs = append(errs, fmt.Errorf("volumes[%d]: empty name", i))
		case seen[v.Name]:
			errs = append(errs, fmt.Errorf("volume %q configured twice", v.Name))
		}
		seen[v.Name] = true
	}

	if c.MaxDeletes < 0 {
		errs = append(errs, fmt.Errorf("maxDeletes must be >= 0, got %d", c.MaxDeletes))
	}
	if c.ZFS.ListRetries < 0 {
		errs = append(errs, fmt.Errorf("zfs.listRetries must be >= 0, got %d", c.ZFS.ListRetries))
	}
	if c.ZFS.ListTimeout < 0 || c.ZFS.DestroyTimeout < 0 {
		errs = append(errs, errors.New("zfs timeouts must be positive"))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	c.location = loc

	return errors.Join(errs...)
}

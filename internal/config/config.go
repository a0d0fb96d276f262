package config

import "time"

const (
	DefaultPath           = "/etc/zfs-pruner/config.yaml"
	DefaultBinary         = "/sbin/zfs"
	DefaultListTimeout    = time.Minute
	DefaultDestroyTimeout = 10 * time.Minute
	DefaultListRetries    = 3
)

type Config struct {
	ZFS        ZFSConfig     `yaml:"zfs"`
	Timezone   string        `yaml:"timezone"`   // IANA name, "Local" or "UTC"
	MaxDeletes int           `yaml:"maxDeletes"` // per volume run, 0 = unlimited
	FailFast   bool          `yaml:"failFast"`
	Volumes    Volumes       `yaml:"volumes"`
	Logging    LoggingConfig `yaml:"logging"`
	Metrics    MetricsConfig `yaml:"metrics"`

	location *time.Location
}

type ZFSConfig struct {
	Binary         string        `yaml:"binary"`
	ListTimeout    time.Duration `yaml:"listTimeout"`    // e.g. 1m
	DestroyTimeout time.Duration `yaml:"destroyTimeout"` // e.g. 10m
	ListRetries    int           `yaml:"listRetries"`
}

// VolumeConfig is the retention policy for one volume.
type VolumeConfig struct {
	Name    string  `yaml:"name"`
	Divisor Divisor `yaml:"divisor"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile collector target
}

// Location returns the zone snapshot timestamps are interpreted in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Volume looks up a configured volume by name.
func (c *Config) Volume(name string) (VolumeConfig, bool) {
	for _, v := range c.Volumes {
		if v.Name == name {
			return v, true
		}
	}
	return VolumeConfig{}, false
}

func (c *Config) applyDefaults() {
	if c.ZFS.Binary == "" {
		c.ZFS.Binary = DefaultBinary
	}
	if c.ZFS.ListTimeout == 0 {
		c.ZFS.ListTimeout = DefaultListTimeout
	}
	if c.ZFS.DestroyTimeout == 0 {
		c.ZFS.DestroyTimeout = DefaultDestroyTimeout
	}
	if c.ZFS.ListRetries == 0 {
		c.ZFS.ListRetries = DefaultListRetries
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

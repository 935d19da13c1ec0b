package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	DefaultPort       = 3001
	DefaultBodyLimit  = 64 << 20
	DefaultLogDir     = "log"
	DefaultLogLevel   = "info"
	DefaultMaxApps    = 64
	DefaultMetricPath = "/metrics"
)

// Default is the manifest used when no file is given.
func Default() Config {
	c := Config{}
	_ = c.Validate()
	return c
}

// Validate fills defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BodyLimitBytes == 0 {
		c.Server.BodyLimitBytes = DefaultBodyLimit
	}
	if c.Server.BodyLimitBytes < 0 {
		return errors.New("server.body_limit_bytes must be >= 0")
	}

	if err := c.Log.normalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if c.Runtime.MaxApps == 0 {
		c.Runtime.MaxApps = DefaultMaxApps
	}
	if c.Runtime.MaxApps < 0 {
		return errors.New("runtime.max_apps must be >= 0")
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricPath
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		c.Metrics.Path = "/" + c.Metrics.Path
	}
	c.Metrics.Path = path.Clean(c.Metrics.Path)
	if c.Metrics.Path == "/app" || strings.HasPrefix(c.Metrics.Path, "/app/") {
		return fmt.Errorf("metrics.path %q collides with the app API", c.Metrics.Path)
	}
	return nil
}

func (l *Log) normalize() error {
	if strings.TrimSpace(l.Dir) == "" {
		l.Dir = DefaultLogDir
	}
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	switch l.Level {
	case "":
		l.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level %q invalid", l.Level)
	}
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = 50
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 3
	}
	if l.MaxAgeDays == 0 {
		l.MaxAgeDays = 7
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.New("rotation values must be >= 0")
	}
	paths := l.BodyPaths[:0]
	for _, p := range l.BodyPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	l.BodyPaths = paths
	return nil
}

// pkg/core/load.go
package core

import (
	"fmt"
	"os"
	"strconv"

	manifest "github.com/joeydtaylor/steeze-jrtc/pkg/manifest"
	toml "github.com/pelletier/go-toml/v2"
)

// PortEnv overrides server.port when set.
const PortEnv = "JRTC_REST_PORT"

// LoadConfig reads a TOML manifest. An empty path yields the defaults.
func LoadConfig(path string) (manifest.Config, error) {
	var cfg manifest.Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return manifest.Config{}, err
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return manifest.Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if v := os.Getenv(PortEnv); v != "" {
		p, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return manifest.Config{}, fmt.Errorf("%s=%q: %w", PortEnv, v, err)
		}
		cfg.Server.Port = uint16(p)
	}
	if err := cfg.Validate(); err != nil {
		return manifest.Config{}, err
	}
	return cfg, nil
}

package manifest

// Config is the top-level daemon manifest.
type Config struct {
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
	Runtime Runtime `toml:"runtime"`
	Metrics Metrics `toml:"metrics"`
}

type Server struct {
	Port           uint16 `toml:"port"`
	BodyLimitBytes int64  `toml:"body_limit_bytes"` // cap on POST /app bodies
}

type Log struct {
	Dir        string   `toml:"dir"`
	Level      string   `toml:"level"` // debug | info | warn | error
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
	MaxAgeDays int      `toml:"max_age_days"`
	NoConsole  bool     `toml:"no_console"`
	BodyPaths  []string `toml:"body_paths"` // access log may include request bodies for these paths
}

// Runtime configures the in-process simulated runtime used by jrtc-restd.
type Runtime struct {
	MaxApps int `toml:"max_apps"`
}

type Metrics struct {
	Disabled bool   `toml:"disabled"`
	Path     string `toml:"path"`
}

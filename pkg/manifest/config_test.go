package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, uint16(DefaultPort), c.Server.Port)
	assert.Equal(t, int64(DefaultBodyLimit), c.Server.BodyLimitBytes)
	assert.Equal(t, "log", c.Log.Dir)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 50, c.Log.MaxSizeMB)
	assert.Equal(t, DefaultMaxApps, c.Runtime.MaxApps)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}

func TestValidateNormalizes(t *testing.T) {
	c := Config{
		Log:     Log{Level: " WARN ", BodyPaths: []string{" /app ", "", "  "}},
		Metrics: Metrics{Path: "prom/"},
	}
	require.NoError(t, c.Validate())
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, []string{"/app"}, c.Log.BodyPaths)
	assert.Equal(t, "/prom", c.Metrics.Path)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]Config{
		"level":      {Log: Log{Level: "loud"}},
		"rotation":   {Log: Log{MaxBackups: -1}},
		"max apps":   {Runtime: Runtime{MaxApps: -3}},
		"body limit": {Server: Server{BodyLimitBytes: -1}},
		"collision":  {Metrics: Metrics{Path: "/app/metrics"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.Validate())
		})
	}
}

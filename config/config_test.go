package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout.Duration())
	assert.False(t, cfg.Server.SynchronousMode)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	assert.Equal(t, uint32(DefaultMaxMessageSize), cfg.Client.MaxMessageSize)
	assert.Zero(t, cfg.Client.ReconnectInterval)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"空监听地址", func(c *Config) { c.Server.ListenAddr = "" }},
		{"非法监听地址", func(c *Config) { c.Server.ListenAddr = "localhost" }},
		{"非法外部地址", func(c *Config) { c.Server.ExternalAddr = "nope" }},
		{"零超时", func(c *Config) { c.Server.Timeout = 0 }},
		{"零拨号超时", func(c *Config) { c.Client.DialTimeout = 0 }},
		{"零帧上限", func(c *Config) { c.Client.MaxMessageSize = 0 }},
		{"负重连间隔", func(c *Config) { c.Client.ReconnectInterval = -1 }},
		{"零工作协程", func(c *Config) { c.Scheduler.Workers = 0 }},
		{"零队列", func(c *Config) { c.Scheduler.QueueSize = 0 }},
		{"非法指标前缀", func(c *Config) { c.Metrics.Namespace = "1-bad" }},
		{"未知日志格式", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_MetricsDisabledSkipsNamespace(t *testing.T) {
	cfg := NewConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = ""
	assert.NoError(t, cfg.Validate())
}

func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
server:
  listen_addr: 127.0.0.1:0
  timeout: 1500ms
  synchronous_mode: true
client:
  reconnect_interval: 1s
scheduler:
  workers: 8
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:0", cfg.Server.ListenAddr)
	assert.Equal(t, 1500*time.Millisecond, cfg.Server.Timeout.Duration())
	assert.True(t, cfg.Server.SynchronousMode)
	assert.Equal(t, time.Second, cfg.Client.ReconnectInterval.Duration())
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	// 未出现的字段保留默认值
	assert.Equal(t, 4096, cfg.Scheduler.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Client.DialTimeout.Duration())
}

func TestFromYAML_IntegerDuration(t *testing.T) {
	cfg, err := FromYAML([]byte("server:\n  timeout: 2000000000\n"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Server.Timeout.Duration())
}

func TestFromYAML_InvalidDuration(t *testing.T) {
	_, err := FromYAML([]byte("server:\n  timeout: soon\n"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"server":{"timeout":"3s"},"client":{"dial_timeout":1000000}}`))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Server.Timeout.Duration())
	assert.Equal(t, time.Millisecond, cfg.Client.DialTimeout.Duration())
}

func TestFromJSON_ValidationError(t *testing.T) {
	_, err := FromJSON([]byte(`{"scheduler":{"workers":0}}`))
	assert.ErrorContains(t, err, "workers")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "simstream.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  timeout: 4s\n"), 0o600))
	cfg, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, cfg.Server.Timeout.Duration())

	jsonPath := filepath.Join(dir, "simstream.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server":{"timeout":"5s"}}`), 0o600))
	cfg, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout.Duration())

	_, err = LoadFile(filepath.Join(dir, "simstream.toml"))
	assert.Error(t, err)
}

func TestToYAML_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Timeout = Duration(750 * time.Millisecond)

	data, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 750ms")

	back, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

package main

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simstream/go-simstream/pkg/types"
)

func TestRun_Dispatch(t *testing.T) {
	assert.Error(t, run(nil))
	assert.Error(t, run([]string{"bogus"}))
	assert.NoError(t, run([]string{"version"}))
}

func TestRunToken(t *testing.T) {
	token := types.TokenFromAddrPort(netip.MustParseAddrPort("10.0.0.1:2001"), 7)

	assert.NoError(t, runToken([]string{token.String()}))
	assert.Error(t, runToken(nil))
	assert.Error(t, runToken([]string{"0OIl"}))
}

func TestCommonFlags_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  timeout: 2s\nlog:\n  level: warn\n"), 0o600))

	c := commonFlags{configFile: path, logLevel: "debug"}
	cfg, err := c.load()
	require.NoError(t, err)
	assert.Equal(t, "2s", cfg.Server.Timeout.String())
	assert.Equal(t, "debug", cfg.Log.Level)

	c = commonFlags{configFile: filepath.Join(t.TempDir(), "none.yaml")}
	_, err = c.load()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"server"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 30*time.Minute, c.TokenValidityDuration)
	assert.Equal(t, "utf8-sha512-hex", c.HashMethod)
	assert.NotEmpty(t, c.DatabaseDSN)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-a", ":9090", "-s", "flag-secret", "-t", "5")

	c := LoadConfig()

	assert.Equal(t, ":9090", c.EndpointAddr)
	assert.Equal(t, "flag-secret", c.SecretKey)
	assert.Equal(t, 5*time.Minute, c.TokenValidityDuration)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"endpoint_addr": ":7070",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"token_validity_duration": "45m",
		"jwt_issuer": "json-issuer",
		"jwt_audience": "json-audience",
		"hash_method": "utf8-sha3-512-hex"
	}`), 0o600))

	withArgs(t, "-c", file)

	c := LoadConfig()

	assert.Equal(t, ":7070", c.EndpointAddr)
	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 45*time.Minute, c.TokenValidityDuration)
	assert.Equal(t, "json-issuer", c.JWTIssuer)
	assert.Equal(t, "utf8-sha3-512-hex", c.HashMethod)
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"endpoint_addr": ":7070",
		"secret_key": "json-secret",
		"token_validity_duration": "45m"
	}`), 0o600))

	withArgs(t, "-c", file, "-a", ":6060")

	c := LoadConfig()

	assert.Equal(t, ":6060", c.EndpointAddr)
	assert.Equal(t, "json-secret", c.SecretKey)
}

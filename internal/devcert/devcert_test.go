package devcert

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem")
}

func TestEnsureGeneratesAndReuses(t *testing.T) {
	certPath, keyPath := paths(t)
	now := time.Now()

	generated, err := Ensure(certPath, keyPath, []string{"localhost", "127.0.0.1"}, now)
	require.NoError(t, err)
	assert.True(t, generated)

	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", leaf.IPAddresses[0].String())

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	generated, err = Ensure(certPath, keyPath, []string{"localhost"}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, generated)
}

func TestEnsureRenewsNearExpiry(t *testing.T) {
	certPath, keyPath := paths(t)
	now := time.Now()
	require.NoError(t, Generate(certPath, keyPath, []string{"localhost"}, now))

	generated, err := Ensure(certPath, keyPath, []string{"localhost"}, now.Add(Validity-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, generated)
}

func TestEnsureWithoutHosts(t *testing.T) {
	certPath, keyPath := paths(t)

	_, err := Ensure(certPath, keyPath, nil, time.Now())

	assert.Error(t, err)
}

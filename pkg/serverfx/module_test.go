package serverfx

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/client"
	"github.com/joeydtaylor/steeze-jrtc/pkg/core"
	"github.com/joeydtaylor/steeze-jrtc/pkg/simrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.toml")
	body := fmt.Sprintf(`
[log]
dir = %q
no_console = true

[runtime]
max_apps = 2
`, filepath.Join(dir, "log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestModuleServesAndUnloadsOnStop(t *testing.T) {
	port := freePort(t)
	t.Setenv(core.PortEnv, fmt.Sprint(port))

	opts := DefaultOptions()
	opts.ManifestPath = writeManifest(t)

	var rt *simrt.Runtime
	fxApp := fxtest.New(t, Module(opts), fx.Populate(&rt))
	fxApp.RequireStart()

	c := client.New(fmt.Sprintf("http://127.0.0.1:%d", port))
	ctx := context.Background()
	st, err := c.Load(ctx, &app.LoadRequest{App: []byte{1, 2}, AppName: "svc"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.ID, int32(0))
	assert.Len(t, rt.Apps(), 1)

	fxApp.RequireStop()
	assert.Empty(t, rt.Apps(), "stop must unload every app")

	_, err = c.List(ctx)
	assert.Error(t, err)
}

func TestMissingDefaultManifestUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	opts := DefaultOptions()
	opts.ManifestEnv = "JRTC_TEST_UNSET_MANIFEST"

	cfg, err := provideConfig(opts)
	require.NoError(t, err)
	assert.EqualValues(t, 3001, cfg.Server.Port)
	assert.Equal(t, 64, cfg.Runtime.MaxApps)
}

func TestExplicitMissingManifestFails(t *testing.T) {
	opts := DefaultOptions()
	opts.ManifestPath = filepath.Join(t.TempDir(), "nope.toml")

	_, err := provideConfig(opts)
	assert.Error(t, err)
}

func writeKeypair(t *testing.T) (certFile, keyFile string, pool *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(7),
		Subject:               pkix.Name{CommonName: "jrtc-restd"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile, keyFile = filepath.Join(dir, "tls.crt"), filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pool = x509.NewCertPool()
	pool.AddCert(leaf)
	return certFile, keyFile, pool
}

func TestModuleServesTLSWhenKeypairPresent(t *testing.T) {
	port := freePort(t)
	t.Setenv(core.PortEnv, fmt.Sprint(port))
	cert, key, pool := writeKeypair(t)
	t.Setenv("SSL_SERVER_CERTIFICATE", cert)
	t.Setenv("SSL_SERVER_KEY", key)

	opts := DefaultOptions()
	opts.ManifestPath = writeManifest(t)
	fxApp := fxtest.New(t, Module(opts))
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	hc := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS13, RootCAs: pool},
	}}
	c := client.New(fmt.Sprintf("https://127.0.0.1:%d", port), client.WithHTTPClient(hc))
	apps, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestModuleServesPlainWhenKeypairMissing(t *testing.T) {
	port := freePort(t)
	t.Setenv(core.PortEnv, fmt.Sprint(port))
	t.Setenv("SSL_SERVER_CERTIFICATE", filepath.Join(t.TempDir(), "absent.crt"))
	t.Setenv("SSL_SERVER_KEY", "")

	opts := DefaultOptions()
	opts.ManifestPath = writeManifest(t)
	fxApp := fxtest.New(t, Module(opts))
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	_, err := client.New(fmt.Sprintf("http://127.0.0.1:%d", port)).List(context.Background())
	require.NoError(t, err)
}

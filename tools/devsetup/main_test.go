package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FloraFacts/internal/auth"
	"github.com/atinyakov/FloraFacts/internal/certgen"
)

func TestRun_WritesCertificates(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, run([]string{"-dir", dir, "-hosts", "localhost, 10.0.0.5"}, "", &out))
	assert.Contains(t, out.String(), "certificates written to")

	srv, err := certgen.Load(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, srv.Cert.DNSNames)
	require.Len(t, srv.Cert.IPAddresses, 1)
	assert.Equal(t, "10.0.0.5", srv.Cert.IPAddresses[0].String())

	_, err = certgen.Load(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	assert.NoError(t, err)
}

func TestRun_IssuesVerifiableToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-skip-certs", "-user", "alice", "-name", "Alice"}, "s3cret", &out))

	token := strings.TrimSpace(out.String())
	tokens, err := auth.NewTokens("s3cret", "florafacts")
	require.NoError(t, err)
	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)
}

func TestRun_TokenNeedsSecret(t *testing.T) {
	err := run([]string{"-skip-certs", "-user", "alice"}, "", &bytes.Buffer{})
	assert.Error(t, err)
}

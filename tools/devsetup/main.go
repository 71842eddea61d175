// Package main prepares a local development environment: a CA and server
// certificate for TLS, and a signed bearer token for a test user.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/FloraFacts/internal/auth"
	"github.com/atinyakov/FloraFacts/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Getenv("JWT_SECRET"), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "devsetup:", err)
		os.Exit(1)
	}
}

func run(args []string, secret string, out io.Writer) error {
	fs := flag.NewFlagSet("devsetup", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory for certificates")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server host names")
	user := fs.String("user", "", "issue a bearer token for this identity")
	name := fs.String("name", "", "display name carried in the token")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	issuer := fs.String("issuer", "florafacts", "token issuer")
	skipCerts := fs.Bool("skip-certs", false, "only issue the token")
	fs.StringVar(&secret, "secret", secret, "jwt signing secret (defaults to $JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*skipCerts {
		if err := writeCerts(*dir, strings.Split(*hosts, ",")); err != nil {
			return err
		}
		fmt.Fprintf(out, "certificates written to %s\n", *dir)
	}

	if *user == "" {
		return nil
	}
	tokens, err := auth.NewTokens(secret, *issuer)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(*user, *name, *ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(out, token)
	return nil
}

func writeCerts(dir string, hosts []string) error {
	ca, err := certgen.GenerateCA("FloraFacts Dev CA", 10*365*24*time.Hour)
	if err != nil {
		return err
	}
	if err := ca.Write(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")); err != nil {
		return err
	}

	for i := range hosts {
		hosts[i] = strings.TrimSpace(hosts[i])
	}
	srv, err := certgen.GenerateServerCertificate(hosts, ca, 365*24*time.Hour)
	if err != nil {
		return err
	}
	return srv.Write(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
}

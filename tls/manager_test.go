package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewManagerPaths(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir)

	tests := []struct {
		name, got, want string
	}{
		{"tlsDir", mgr.tlsDir, filepath.Join(dir, "tls")},
		{"certFile", mgr.certFile, filepath.Join(dir, "tls", "server.crt")},
		{"keyFile", mgr.keyFile, filepath.Join(dir, "tls", "server.key")},
		{"caCertFile", mgr.CACertFile(), filepath.Join(dir, "ca", "rootCA.pem")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestHostsChanged(t *testing.T) {
	mgr := NewManager(t.TempDir())
	os.MkdirAll(mgr.tlsDir, 0700)

	if !mgr.hostsChanged([]string{"localhost"}) {
		t.Error("expected change when no hosts are cached")
	}

	if err := mgr.writeCachedHosts([]string{"localhost", "127.0.0.1"}); err != nil {
		t.Fatalf("writeCachedHosts: %v", err)
	}

	tests := []struct {
		name  string
		hosts []string
		want  bool
	}{
		{"same", []string{"localhost", "127.0.0.1"}, false},
		{"reordered", []string{"127.0.0.1", "localhost"}, false},
		{"added", []string{"localhost", "127.0.0.1", "192.168.1.1"}, true},
		{"removed", []string{"localhost"}, true},
	}
	for _, tt := range tests {
		if got := mgr.hostsChanged(tt.hosts); got != tt.want {
			t.Errorf("%s: hostsChanged = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCachedHostsRoundTrip(t *testing.T) {
	mgr := NewManager(t.TempDir())
	os.MkdirAll(mgr.tlsDir, 0700)

	hosts := []string{"localhost", "127.0.0.1", "192.168.1.100"}
	if err := mgr.writeCachedHosts(hosts); err != nil {
		t.Fatal(err)
	}
	got, err := mgr.readCachedHosts()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != strings.Join(hosts, ",") {
		t.Errorf("readCachedHosts = %v, want %v", got, hosts)
	}
}

func TestCertsExist(t *testing.T) {
	mgr := NewManager(t.TempDir())
	os.MkdirAll(mgr.tlsDir, 0700)

	if mgr.certsExist() {
		t.Error("expected no certs")
	}
	os.WriteFile(mgr.certFile, []byte("cert"), 0600)
	if mgr.certsExist() {
		t.Error("expected certsExist=false with only the cert")
	}
	os.WriteFile(mgr.keyFile, []byte("key"), 0600)
	if !mgr.certsExist() {
		t.Error("expected certsExist=true with both files")
	}
}

func TestCAFingerprint(t *testing.T) {
	mgr := NewManager(t.TempDir())
	if _, err := mgr.CAFingerprint(); err == nil {
		t.Error("expected error without a CA certificate")
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test CA"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}

	os.MkdirAll(mgr.caDir, 0700)
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(mgr.caCertFile, pemData, 0600); err != nil {
		t.Fatal(err)
	}

	fp, err := mgr.CAFingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if parts := strings.Split(fp, ":"); len(parts) != 32 || len(parts[0]) != 2 {
		t.Errorf("fingerprint = %q", fp)
	}

	if _, err := pemFingerprint([]byte("not pem")); err == nil {
		t.Error("expected error for invalid PEM")
	}
}

package gcstore_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/streamfox/services-media/internal/storage/gcstore"
)

func TestSignedPlaybackURL(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	fixed := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	signer, err := gcstore.NewPlaybackSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcstore.WithServiceAccountKey(accessID, keyPEM),
		gcstore.WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("NewPlaybackSigner: %v", err)
	}

	ttl := 15 * time.Minute
	signedURL, expires, err := signer.SignedPlaybackURL(ctx, "my-bucket", "videos/42", ttl)
	if err != nil {
		t.Fatalf("SignedPlaybackURL: %v", err)
	}
	if !expires.Equal(fixed.Add(ttl)) {
		t.Fatalf("expected expires %v, got %v", fixed.Add(ttl), expires)
	}

	parsed, err := url.Parse(signedURL)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if parsed.Host == "" {
		t.Fatal("expected host in signed url")
	}
	if !strings.Contains(parsed.Path, "videos/42") {
		t.Fatalf("expected object path in signed url, got %s", parsed.Path)
	}

	query := parsed.Query()
	if query.Get("X-Goog-Expires") == "" {
		t.Fatal("missing TTL in signed url")
	}
	if query.Get("X-Goog-Signature") == "" {
		t.Fatal("missing signature in signed url")
	}
	if got := query.Get("X-Goog-Credential"); !strings.HasPrefix(got, accessID) {
		t.Fatalf("expected credential for %s, got %s", accessID, got)
	}
}

func TestSignedPlaybackURLValidatesInput(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	signer, err := gcstore.NewPlaybackSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcstore.WithServiceAccountKey(accessID, keyPEM),
	)
	if err != nil {
		t.Fatalf("NewPlaybackSigner: %v", err)
	}

	if _, _, err := signer.SignedPlaybackURL(ctx, "", "videos/1", time.Minute); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, _, err := signer.SignedPlaybackURL(ctx, "b", "", time.Minute); err == nil {
		t.Fatal("expected error for empty object")
	}
	if _, _, err := signer.SignedPlaybackURL(ctx, "b", "videos/1", 0); err == nil {
		t.Fatal("expected error for non-positive ttl")
	}
}

func TestSignedPlaybackURLUsesGetMethod(t *testing.T) {
	ctx := context.Background()
	keyPEM, accessID := generateTestKey(t)
	signer, err := gcstore.NewPlaybackSigner(ctx, accessID, log.NewStdLogger(io.Discard),
		gcstore.WithServiceAccountKey(accessID, keyPEM),
	)
	if err != nil {
		t.Fatalf("NewPlaybackSigner: %v", err)
	}

	signedURL, _, err := signer.SignedPlaybackURL(ctx, "my-bucket", "videos/7", time.Minute)
	if err != nil {
		t.Fatalf("SignedPlaybackURL: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, signedURL, nil)
	if err != nil {
		t.Fatalf("build request from signed url: %v", err)
	}
	if req.Method != http.MethodGet {
		t.Fatalf("expected GET, got %s", req.Method)
	}
}

func generateTestKey(t *testing.T) ([]byte, string) {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(rsaKey)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}
	pemBytes := pem.EncodeToMemory(block)
	accessID := "test-signer@unit-test.iam.gserviceaccount.com"
	return pemBytes, accessID
}

package security

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestAppKeySecretProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider, err := NewAppKeySecretProviderFromString("webhook-master-key")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	plaintext := []byte(`{"username":"svc","password":"hunter2"}`)
	encrypted, err := provider.Encrypt(ctx, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !IsSealed(encrypted) {
		t.Fatalf("ciphertext missing envelope prefix: %q", encrypted)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Fatalf("ciphertext leaks plaintext")
	}

	decrypted, err := provider.Decrypt(ctx, encrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("round trip mismatch: %q", decrypted)
	}
}

func TestAppKeySecretProviderRejectsWrongKey(t *testing.T) {
	ctx := context.Background()
	provider, err := NewAppKeySecretProviderFromString("key-one")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	other, err := NewAppKeySecretProviderFromString("key-two")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	encrypted, err := provider.Encrypt(ctx, []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := other.Decrypt(ctx, encrypted); err == nil {
		t.Fatalf("expected decryption failure with wrong key")
	}
}

func TestAppKeySecretProviderKeyIdentity(t *testing.T) {
	ctx := context.Background()
	provider, err := NewAppKeySecretProviderFromString("master", WithKeyID("primary"), WithVersion(2))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	encrypted, err := provider.Encrypt(ctx, []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	meta, err := ParseEnvelopeMetadata(encrypted)
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if meta.KeyID != "primary" || meta.Version != 2 || meta.Algorithm != envelopeAlgorithm {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	mismatched, err := NewAppKeySecretProviderFromString("master", WithKeyID("secondary"))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := mismatched.Decrypt(ctx, encrypted); err == nil {
		t.Fatalf("expected key id mismatch rejection")
	}
}

func TestAppKeySecretProviderRotationWindow(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider, err := NewAppKeySecretProviderFromString("master",
		WithRotationWindow(KeyRotationWindow{NotAfter: frozen.Add(-time.Hour)}),
		WithNow(func() time.Time { return frozen }),
	)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	if _, err := provider.Encrypt(ctx, []byte("secret")); err == nil {
		t.Fatalf("expected rotation window rejection")
	}
}

func TestAppKeySecretProviderRejectsForeignCiphertext(t *testing.T) {
	ctx := context.Background()
	provider, err := NewAppKeySecretProviderFromString("master")
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	if _, err := provider.Decrypt(ctx, []byte("plaintext-remnant")); err == nil {
		t.Fatalf("expected prefix rejection")
	}
	if _, err := provider.Decrypt(ctx, nil); err == nil {
		t.Fatalf("expected empty ciphertext rejection")
	}
}

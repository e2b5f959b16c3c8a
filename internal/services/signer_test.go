package services_test

import (
	"testing"

	"bgaming-proxy/internal/services"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := services.NewSigner("test-secret")

	tokens := []string{
		"ebfb32d3-b8ff-477c-85e0-2e54e4485e45",
		"another-token",
		"",
	}

	for _, token := range tokens {
		signature := signer.Sign(token)
		if signature == "" {
			t.Errorf("Signature for %q should not be empty", token)
		}
		if !signer.Verify(signature, token) {
			t.Errorf("Verify(Sign(%q), %q) should be true", token, token)
		}
	}
}

func TestSignerDeterministic(t *testing.T) {
	signer := services.NewSigner("test-secret")

	if signer.Sign("token-a") != signer.Sign("token-a") {
		t.Error("Signing the same token twice should yield the same signature")
	}
}

func TestSignerRejectsMismatch(t *testing.T) {
	signer := services.NewSigner("test-secret")

	if signer.Verify(signer.Sign("token-a"), "token-b") {
		t.Error("Signature for token-a must not verify against token-b")
	}

	if signer.Verify("not-a-signature", "token-a") {
		t.Error("Garbage signature must not verify")
	}
}

func TestSignerSecretMatters(t *testing.T) {
	a := services.NewSigner("secret-a")
	b := services.NewSigner("secret-b")

	if b.Verify(a.Sign("token"), "token") {
		t.Error("Signature from one secret must not verify under another")
	}
}

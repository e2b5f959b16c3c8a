package services_test

import (
	"testing"
	"time"

	"bgaming-proxy/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")

	token, err := jwtService.GenerateToken("op_1", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.OperatorID != "op_1" {
		t.Errorf("Expected operator op_1, got %s", claims.OperatorID)
	}
}

func TestJWTExpiredToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")

	token, err := jwtService.GenerateToken("op_1", -time.Minute)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := jwtService.ValidateToken(token); err == nil {
		t.Error("An expired token should be rejected")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := services.NewJWTService("secret-a").GenerateToken("op_1", time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := services.NewJWTService("secret-b").ValidateToken(token); err == nil {
		t.Error("A token signed with another secret should be rejected")
	}
}

func TestJWTGarbageToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")

	if _, err := jwtService.ValidateToken("not.a.token"); err == nil {
		t.Error("Garbage input should be rejected")
	}
}

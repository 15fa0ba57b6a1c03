// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	token, err := NewToken(key, "cli", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := VerifyToken(key, token, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if want, got := "cli", claims.Subject; want != got {
		t.Fatalf("want %s, got %s", want, got)
	}

	if _, err := VerifyToken([]byte("wrong-key-wrong-key-wrong-key-00"), token, time.Now()); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("want os.ErrPermission, got %v", err)
	}
	if _, err := VerifyToken(key, token, time.Now().Add(2*time.Minute)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for expired token, got %v", err)
	}
	if _, err := VerifyToken(key, "garbage", time.Now()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestTokenLifetimeIsCapped(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	token, err := NewToken(key, "cli", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := VerifyToken(key, token, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if d := claims.Expiry.Time().Sub(claims.IssuedAt.Time()); d > MaxTokenLifetime {
		t.Fatalf("want lifetime <= %s, got %s", MaxTokenLifetime, d)
	}
}

func TestBearerToken(t *testing.T) {
	if v, ok := BearerToken("Bearer abc"); !ok || v != "abc" {
		t.Fatalf("want abc, got %q", v)
	}
	if _, ok := BearerToken("Basic abc"); ok {
		t.Fatalf("want failure for basic auth")
	}
	if _, ok := BearerToken("Bearer "); ok {
		t.Fatalf("want failure for empty token")
	}
}

func TestRequestChecks(t *testing.T) {
	if err := (&PairStopRequest{}).Check(); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if err := (&PairStartRequest{}).Check(); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if err := (&PairUpdateConfigRequest{Pair: "BTCUSDT"}).Check(); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
}

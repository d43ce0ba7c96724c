package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestSigner() *Signer {
	return NewSigner(Credentials{AccessKey: "test-access", SecretKey: "test-secret"}, noopLogger())
}

func parseToken(t *testing.T, bearer string) jwt.MapClaims {
	t.Helper()

	if !strings.HasPrefix(bearer, "Bearer ") {
		t.Fatalf("token should carry Bearer prefix, got %q", bearer)
	}

	token, err := jwt.Parse(strings.TrimPrefix(bearer, "Bearer "), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("token should verify under the secret: %v", err)
	}
	if !token.Valid {
		t.Fatal("token should be valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", token.Claims)
	}
	return claims
}

func TestSignNotConfigured(t *testing.T) {
	cases := []Credentials{
		{},
		{AccessKey: "only-access"},
		{SecretKey: "only-secret"},
		{AccessKey: "  ", SecretKey: "x"},
	}
	for _, creds := range cases {
		s := NewSigner(creds, noopLogger())
		if _, err := s.Sign(nil); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("credentials %+v should fail with ErrNotConfigured, got %v", creds, err)
		}
	}
}

func TestSignBaseClaims(t *testing.T) {
	s := newTestSigner()
	before := time.Now().UnixMilli()

	bearer, err := s.Sign(nil)
	if err != nil {
		t.Fatalf("sign should succeed: %v", err)
	}
	after := time.Now().UnixMilli()

	claims := parseToken(t, bearer)

	if claims["access_key"] != "test-access" {
		t.Fatalf("access_key claim mismatch: %v", claims["access_key"])
	}
	nonce, _ := claims["nonce"].(string)
	if nonce == "" {
		t.Fatal("nonce claim should be non-empty")
	}
	ts, ok := claims["timestamp"].(float64)
	if !ok {
		t.Fatalf("timestamp claim should be numeric: %v", claims["timestamp"])
	}
	if int64(ts) < before || int64(ts) > after {
		t.Fatalf("timestamp %d should fall in [%d, %d]", int64(ts), before, after)
	}
	if _, present := claims["query_hash"]; present {
		t.Fatal("query_hash must be absent without query parameters")
	}
	if _, present := claims["query_hash_alg"]; present {
		t.Fatal("query_hash_alg must be absent without query parameters")
	}
}

func TestSignQueryHash(t *testing.T) {
	s := newTestSigner()

	bearer, err := s.Sign([]Param{{Name: "market", Value: "KRW-BTC"}})
	if err != nil {
		t.Fatalf("sign should succeed: %v", err)
	}

	claims := parseToken(t, bearer)

	sum := sha512.Sum512([]byte("market=KRW-BTC"))
	want := hex.EncodeToString(sum[:])
	if len(want) != 128 {
		t.Fatalf("digest should be 128 hex characters, got %d", len(want))
	}
	if claims["query_hash"] != want {
		t.Fatalf("query_hash mismatch:\nwant %s\ngot  %v", want, claims["query_hash"])
	}
	if claims["query_hash_alg"] != "SHA512" {
		t.Fatalf("query_hash_alg should be SHA512, got %v", claims["query_hash_alg"])
	}
}

func TestSignNonceUniquePerCall(t *testing.T) {
	s := newTestSigner()
	params := []Param{{Name: "currency", Value: "BTC"}}

	first, err := s.Sign(params)
	if err != nil {
		t.Fatalf("sign should succeed: %v", err)
	}
	second, err := s.Sign(params)
	if err != nil {
		t.Fatalf("sign should succeed: %v", err)
	}

	if first == second {
		t.Fatal("two tokens over identical inputs must differ (nonce)")
	}

	firstClaims := parseToken(t, first)
	secondClaims := parseToken(t, second)
	if firstClaims["nonce"] == secondClaims["nonce"] {
		t.Fatal("nonces must be unique per signed request")
	}
	if firstClaims["query_hash"] != secondClaims["query_hash"] {
		t.Fatal("query_hash must be deterministic for fixed parameters")
	}
}

func TestEncodeQueryPreservesOrder(t *testing.T) {
	got := EncodeQuery([]Param{
		{Name: "searchGb", Value: "0"},
		{Name: "currency", Value: "BTC"},
		{Name: "note", Value: "a b"},
	})
	want := "searchGb=0&currency=BTC&note=a+b"
	if got != want {
		t.Fatalf("encoded query mismatch: want %q, got %q", want, got)
	}

	if EncodeQuery(nil) != "" {
		t.Fatal("empty params should encode to empty string")
	}
}

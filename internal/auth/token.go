package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// newSessionID returns 32 random bytes, base64url encoded.
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sign(secret []byte, value string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// encodeToken produces the cookie value "<id>.<signature>".
func encodeToken(secret []byte, sessionID string) string {
	return sessionID + "." + sign(secret, sessionID)
}

// decodeToken verifies the signature and returns the session id.
func decodeToken(secret []byte, token string) (string, bool) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" || sig == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(secret, id))) {
		return "", false
	}
	return id, true
}

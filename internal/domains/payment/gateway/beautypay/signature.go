package beautypay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// =====================================================
// BEAUTYPAY SIGNATURE
// =====================================================

// Sign computes the HMAC-SHA256 of the raw body with the shared secret,
// hex encoded. Request bodies we send and webhook bodies we receive are
// signed the same way.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the received signature against the expected one in
// constant time. Hex decoding first keeps the comparison constant-time
// over the MAC bytes rather than an attacker-controlled string.
func Verify(signature string, body []byte, secret string) bool {
	received, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}

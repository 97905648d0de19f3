package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign calculates the base64 HMAC-SHA256 signature of a serialized event.
func Sign(payload []byte, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches payload under secretKey.
func Verify(payload []byte, signature, secretKey string) bool {
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(payload)
	return hmac.Equal(h.Sum(nil), want)
}

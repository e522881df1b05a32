// Package signature authenticates gateway webhook notifications.
//
// The gateway signs the literal byte string "id=<X-Request-Id>;<raw body>"
// with HMAC-SHA256 and sends the digest as "sha256=<digest>" inside the
// X-Signature header. The digest may be hex or base64 encoded.
//
// The body handed to Verify must be the bytes read off the wire. Decoding
// and re-encoding JSON changes key order and whitespace and the digest no
// longer matches.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const digestLabel = "sha256"

// Verifier checks webhook signatures. The zero value is ready to use.
type Verifier struct{}

// NewVerifier creates a new signature verifier
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether signatureHeader carries the HMAC of requestID and
// rawBody under secret. It never panics; any malformed input is false.
func (v *Verifier) Verify(requestID, signatureHeader string, rawBody []byte, secret string) bool {
	if secret == "" || requestID == "" {
		return false
	}

	value, ok := digestFromHeader(signatureHeader)
	if !ok {
		return false
	}

	got, ok := decodeDigest(value)
	if !ok || len(got) != sha256.Size {
		return false
	}

	return hmac.Equal(got, mac(requestID, rawBody, secret))
}

// Sign returns the hex digest the gateway would send for requestID and rawBody.
func Sign(requestID string, rawBody []byte, secret string) string {
	return hex.EncodeToString(mac(requestID, rawBody, secret))
}

// Header formats a digest as an X-Signature header value.
func Header(digest string) string {
	return digestLabel + "=" + digest
}

func mac(requestID string, rawBody []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte("id=" + requestID + ";"))
	h.Write(rawBody)
	return h.Sum(nil)
}

// digestFromHeader extracts the sha256 value from "k1=v1,k2=v2". A header
// naming sha256 more than once is rejected.
func digestFromHeader(header string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, pair := range strings.Split(header, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) != digestLabel {
			continue
		}
		if found {
			return "", false
		}
		value, found = strings.TrimSpace(val), true
	}
	if !found || value == "" {
		return "", false
	}
	return value, true
}

func decodeDigest(value string) ([]byte, bool) {
	if len(value) == hex.EncodedLen(sha256.Size) {
		if b, err := hex.DecodeString(value); err == nil {
			return b, true
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(value); err == nil {
			return b, true
		}
	}
	return nil, false
}

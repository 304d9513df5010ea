package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signature header names expected on incoming webhook requests.
const (
	HeaderSignature = "X-Billing-Signature"
	HeaderTimestamp = "X-Billing-Timestamp"
)

// DefaultSignatureMaxAge bounds how long a signed payload stays valid.
// Providers retry within minutes; anything older is a replay.
const DefaultSignatureMaxAge = 5 * time.Minute

// allowed clock skew for timestamps slightly ahead of our clock.
const signatureSkew = time.Minute

// SignatureHeaders carries the authentication material from a webhook
// request. Timestamp is Unix seconds and is bound into the signature.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
}

// Sign computes the HMAC-SHA256 signature for a payload at the given
// time. Signature format: HMAC-SHA256(secret, "<unix>.<payload>").
// Used by tests and by providers emulating our scheme.
func Sign(secret string, payload []byte, at time.Time) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, ErrSecretRequired
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	ts := at.Unix()
	return SignatureHeaders{
		Signature: computeSignature(secret, payload, ts),
		Timestamp: ts,
	}, nil
}

// VerifySignature authenticates a webhook payload. The timestamp bound
// into the signature is checked against maxAge to reject replays, and
// the comparison is constant-time. Callers must reject the request
// outright on error; an unverified payload is never stored.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration, now time.Time) error {
	if secret == "" {
		return ErrSecretRequired
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if headers.Signature == "" {
		return fmt.Errorf("%w: signature header missing", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := now.Sub(time.Unix(headers.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signed %s ago", ErrSignatureExpired, age)
		}
		if age < -signatureSkew {
			return fmt.Errorf("%w: timestamp in the future", ErrSignatureExpired)
		}
	}

	expected := computeSignature(secret, payload, headers.Timestamp)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func computeSignature(secret string, payload []byte, ts int64) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

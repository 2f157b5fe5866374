package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the replay window: the maximum allowed age of a signed
// payload before rejection.
const DefaultTolerance = 300 * time.Second

// Verifier validates the authenticity and freshness of signed webhook
// payloads. The signature header carries the timestamp the sender signed,
// in the form "t=<unix_timestamp>,v1=<hex_hmac>", with the HMAC-SHA256
// computed over "<timestamp>.<raw_payload>".
type Verifier struct {
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier with the default replay window.
func NewVerifier() *Verifier {
	return &Verifier{
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

// Verify reports whether the payload was signed with secret and is inside
// the replay window. Every failure mode, malformed header, stale timestamp,
// missing secret, signature mismatch, returns false; Verify never panics.
func (v *Verifier) Verify(payload []byte, signatureHeader, secret string) bool {
	if secret == "" {
		return false
	}

	timestamp, signature, ok := parseSignatureHeader(signatureHeader)
	if !ok {
		return false
	}

	age := v.now().Unix() - timestamp
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > v.tolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)

	// hmac.Equal is constant-time; a short-circuiting comparison would leak
	// how many leading bytes of the forged digest match.
	return hmac.Equal(signature, mac.Sum(nil))
}

// parseSignatureHeader splits "t=<ts>,v1=<hex>" into its parts. The header
// must contain exactly those two components.
func parseSignatureHeader(header string) (int64, []byte, bool) {
	parts := strings.Split(header, ",")
	if len(parts) != 2 {
		return 0, nil, false
	}

	tsPart, ok := strings.CutPrefix(parts[0], "t=")
	if !ok {
		return 0, nil, false
	}
	sigPart, ok := strings.CutPrefix(parts[1], "v1=")
	if !ok {
		return 0, nil, false
	}

	timestamp, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, nil, false
	}
	signature, err := hex.DecodeString(sigPart)
	if err != nil || len(signature) == 0 {
		return 0, nil, false
	}
	return timestamp, signature, true
}

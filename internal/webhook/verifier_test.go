package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signHeader(t *testing.T, payload []byte, secret string, ts int64) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func frozenVerifier(now time.Time) *Verifier {
	v := NewVerifier()
	v.now = func() time.Time { return now }
	return v
}

func TestVerifier_ValidSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)

	header := signHeader(t, payload, "whsec_test", now.Unix())
	assert.True(t, v.Verify(payload, header, "whsec_test"))
}

func TestVerifier_ReplayWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name string
		ts   int64
		want bool
	}{
		{name: "just inside window", ts: now.Unix() - 299, want: true},
		{name: "on the boundary", ts: now.Unix() - 300, want: true},
		{name: "just outside window", ts: now.Unix() - 301, want: false},
		{name: "ten minutes old", ts: now.Unix() - 600, want: false},
		{name: "from the future", ts: now.Unix() + 301, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := signHeader(t, payload, "whsec_test", tt.ts)
			assert.Equal(t, tt.want, v.Verify(payload, header, "whsec_test"))
		})
	}
}

func TestVerifier_ForgedSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)
	payload := []byte(`{"id":"evt_1"}`)

	header := signHeader(t, payload, "whsec_b", now.Unix())
	assert.False(t, v.Verify(payload, header, "whsec_a"))
}

func TestVerifier_TamperedPayload(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)

	header := signHeader(t, []byte(`{"amount":10}`), "whsec_test", now.Unix())
	assert.False(t, v.Verify([]byte(`{"amount":1000}`), header, "whsec_test"))
}

func TestVerifier_EmptySecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)
	payload := []byte(`{"id":"evt_1"}`)

	header := signHeader(t, payload, "", now.Unix())
	assert.False(t, v.Verify(payload, header, ""))
}

func TestVerifier_MalformedHeader(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := frozenVerifier(now)
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "missing v1", header: fmt.Sprintf("t=%d", now.Unix())},
		{name: "missing t", header: "v1=deadbeef"},
		{name: "extra component", header: fmt.Sprintf("t=%d,v1=deadbeef,v0=cafe", now.Unix())},
		{name: "swapped components", header: fmt.Sprintf("v1=deadbeef,t=%d", now.Unix())},
		{name: "non-numeric timestamp", header: "t=soon,v1=deadbeef"},
		{name: "non-hex signature", header: fmt.Sprintf("t=%d,v1=zzzz", now.Unix())},
		{name: "empty signature", header: fmt.Sprintf("t=%d,v1=", now.Unix())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Verify(payload, tt.header, "whsec_test"))
		})
	}
}

package model

// EnvelopeVersion pins the envelope algorithm and layout for forward migration.
const EnvelopeVersion = "1.0"

// EncryptedEnvelope is the self-describing wrapper around an encrypted secret.
// IV and Data serialize as base64 strings through encoding/json, so the
// envelope round-trips through any JSON-capable storage medium unchanged.
type EncryptedEnvelope struct {
	IV        []byte `json:"iv"`
	Data      []byte `json:"data"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

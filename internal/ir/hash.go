package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed keys.
// Version suffix enables future algorithm migration.
const (
	DomainCommand = "odata/command/v1"
	DomainRequest = "odata/request/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CommandKey computes the cache key of a command text. Command text is
// deterministic for equal descriptors, so equal descriptors share a key.
func CommandKey(commandText string) string {
	return hashWithDomain(DomainCommand, []byte(norm.NFC.String(commandText)))
}

// RequestKey computes the content-addressed key of a request: method,
// command text and (canonical) body. Used by the recording store to match
// replayed requests.
func RequestKey(method, commandText string, body any) (string, error) {
	obj := map[string]any{
		"method":  method,
		"command": commandText,
		"body":    body,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RequestKey: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainRequest, canonical), nil
}

// MustRequestKey is like RequestKey but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRequestKey(method, commandText string, body any) string {
	key, err := RequestKey(method, commandText, body)
	if err != nil {
		panic(err)
	}
	return key
}

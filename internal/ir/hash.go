package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainCall     = "ffibench/call/v1"
	DomainBenchRun = "ffibench/bench-run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallID computes the content-addressed ID of a boundary call.
// The ID covers what was asked (flow, entry point, args, seq), not the
// outcome, so a call and its replay share an ID.
// Returns error if args cannot be canonically marshaled (e.g. a null).
func CallID(flowToken, entryPoint string, args IRObject, seq int64) (string, error) {
	obj := IRObject{
		"flow_token":  IRString(flowToken),
		"entry_point": IRString(entryPoint),
		"args":        args,
		"seq":         IRInt(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CallID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainCall, canonical), nil
}

// MustCallID is like CallID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCallID(flowToken, entryPoint string, args IRObject, seq int64) string {
	id, err := CallID(flowToken, entryPoint, args, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// ReportDigest hashes a canonical benchmark report.
func ReportDigest(canonicalReport []byte) string {
	return hashWithDomain(DomainBenchRun, canonicalReport)
}

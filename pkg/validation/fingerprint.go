package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint computes the stable hash used as the decision cache key.
// The command text is whitespace-normalized and combined with the agent,
// working directory and the sorted path set, so that trivially reformatted
// submissions of the same command collapse onto one key while commands from
// different agents or directories stay distinct.
func Fingerprint(req *Request) string {
	h := sha256.New()

	h.Write([]byte(normalizeCommand(req.Command)))
	h.Write([]byte{0})
	h.Write([]byte(req.AgentID))
	h.Write([]byte{0})
	h.Write([]byte(req.WorkingDir))
	h.Write([]byte{0})

	if len(req.Paths) > 0 {
		paths := make([]string, len(req.Paths))
		copy(paths, req.Paths)
		sort.Strings(paths)
		for _, p := range paths {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// normalizeCommand collapses runs of whitespace to single spaces and trims
// the ends, so "rm  -rf  /tmp/x " and "rm -rf /tmp/x" fingerprint the same.
func normalizeCommand(cmd string) string {
	return strings.Join(strings.Fields(cmd), " ")
}

// EnsureFingerprint fills in req.Fingerprint if the caller did not supply
// one, and returns it.
func EnsureFingerprint(req *Request) string {
	if req.Fingerprint == "" {
		req.Fingerprint = Fingerprint(req)
	}
	return req.Fingerprint
}

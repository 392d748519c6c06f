package validation

import (
	"testing"
	"time"
)

func TestFingerprint_WhitespaceNormalization(t *testing.T) {
	a := &Request{AgentID: "agent-1", Command: "rm  -rf   /tmp/scratch"}
	b := &Request{AgentID: "agent-1", Command: " rm -rf /tmp/scratch "}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Expected reformatted commands to share a fingerprint")
	}
}

func TestFingerprint_DistinguishesAgents(t *testing.T) {
	a := &Request{AgentID: "agent-1", Command: "git push"}
	b := &Request{AgentID: "agent-2", Command: "git push"}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Expected different agents to produce different fingerprints")
	}
}

func TestFingerprint_PathOrderIndependent(t *testing.T) {
	a := &Request{AgentID: "a", Command: "cp", Paths: []string{"/x", "/y"}}
	b := &Request{AgentID: "a", Command: "cp", Paths: []string{"/y", "/x"}}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("Expected path order not to affect the fingerprint")
	}
}

func TestFingerprint_WorkingDirMatters(t *testing.T) {
	a := &Request{AgentID: "a", Command: "make clean", WorkingDir: "/srv/app"}
	b := &Request{AgentID: "a", Command: "make clean", WorkingDir: "/srv/other"}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Expected working directory to affect the fingerprint")
	}
}

func TestEnsureFingerprint(t *testing.T) {
	req := &Request{
		ID:          "r1",
		AgentID:     "agent-1",
		Command:     "ls -la",
		SubmittedAt: time.Now(),
	}

	fp := EnsureFingerprint(req)
	if fp == "" {
		t.Fatal("Expected a fingerprint to be computed")
	}
	if req.Fingerprint != fp {
		t.Error("Expected the fingerprint to be stored on the request")
	}

	// Pre-supplied fingerprints are preserved.
	req2 := &Request{Command: "ls", Fingerprint: "preset"}
	if got := EnsureFingerprint(req2); got != "preset" {
		t.Errorf("Expected preset fingerprint to be kept, got %q", got)
	}
}

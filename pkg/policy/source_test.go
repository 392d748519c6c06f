package policy

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const sampleRulesYAML = `version: 1
name: gateway-rules
rules:
  - name: deny-force-push
    action: deny
    priority: 10
    commands:
      - "git push --force*"
  - name: allow-status
    action: allow
    priority: 20
    commands:
      - "git status"
`

func writeRulesFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestFileSource_LoadRules(t *testing.T) {
	path := writeRulesFile(t, t.TempDir(), sampleRulesYAML)

	src := NewFileSource(path)
	ruleSet, err := src.LoadRules(context.Background())
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	if ruleSet.Name != "gateway-rules" {
		t.Errorf("Expected rule set name, got %q", ruleSet.Name)
	}
	if len(ruleSet.Rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(ruleSet.Rules))
	}
	if ruleSet.Rules[0].Action != "deny" {
		t.Errorf("Expected deny action, got %q", ruleSet.Rules[0].Action)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := src.LoadRules(context.Background()); err == nil {
		t.Error("Expected error for missing rules file")
	}
}

func TestFileSource_MalformedYAML(t *testing.T) {
	path := writeRulesFile(t, t.TempDir(), "rules: [unclosed")
	src := NewFileSource(path)
	if _, err := src.LoadRules(context.Background()); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestWatcher_TriggersReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeRulesFile(t, dir, sampleRulesYAML)

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	var reloads atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func() error {
			reloads.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(sampleRulesYAML+"\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite rules file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected a reload after the rules file changed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeRulesFile(t, dir, sampleRulesYAML)

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()

	var reloads atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func() error {
			reloads.Add(1)
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)

	other := filepath.Join(dir, "unrelated.txt")
	if err := os.WriteFile(other, []byte("noise"), 0o644); err != nil {
		t.Fatalf("failed to write unrelated file: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if reloads.Load() != 0 {
		t.Errorf("Expected no reloads for unrelated files, got %d", reloads.Load())
	}
}

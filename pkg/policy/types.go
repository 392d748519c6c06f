package policy

import (
	"fmt"
	"time"
)

// Verdict is the outcome of rule evaluation for one request.
type Verdict string

const (
	// VerdictAllow means an explicit allow rule matched. Authoritative.
	VerdictAllow Verdict = "allow"

	// VerdictDeny means an explicit deny rule matched. Authoritative.
	VerdictDeny Verdict = "deny"

	// VerdictNoMatch means the rules have no opinion; the pattern tier
	// must be consulted.
	VerdictNoMatch Verdict = "no_match"
)

// Result is the outcome of evaluating the rule set against a request.
type Result struct {
	// Verdict is the evaluation outcome.
	Verdict Verdict

	// RuleName identifies the matching rule, when a rule matched.
	RuleName string

	// EvaluationTime is how long evaluation took.
	EvaluationTime time.Duration
}

// Rule is one allow or deny rule. A rule matches a request when every
// constraint the rule specifies is satisfied; unset constraints are ignored.
type Rule struct {
	// Name identifies the rule in decisions and logs.
	Name string `yaml:"name"`

	// Action is "allow" or "deny".
	Action string `yaml:"action"`

	// Priority orders rules; lower numbers evaluate first.
	Priority int `yaml:"priority"`

	// Disabled skips the rule without deleting it.
	Disabled bool `yaml:"disabled,omitempty"`

	// Agents restricts the rule to specific agent IDs.
	Agents []string `yaml:"agents,omitempty"`

	// Commands are glob patterns matched against the normalized command
	// (e.g. "rm -rf *", "git push*").
	Commands []string `yaml:"commands,omitempty"`

	// Paths are glob patterns matched against the paths the command
	// touches (e.g. "/etc/*", "**/secrets/*").
	Paths []string `yaml:"paths,omitempty"`

	// Extensions restricts matching to commands touching files with one
	// of these extensions (e.g. ".pem", ".env").
	Extensions []string `yaml:"extensions,omitempty"`

	// PayloadSizeOver makes the rule match only when the command's payload
	// exceeds this many bytes. Zero disables the constraint.
	PayloadSizeOver int64 `yaml:"payload_size_over,omitempty"`
}

// Validate checks a rule for fatal configuration errors.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if r.Action != "allow" && r.Action != "deny" {
		return fmt.Errorf("rule %q: action must be \"allow\" or \"deny\", got %q", r.Name, r.Action)
	}
	if len(r.Agents) == 0 && len(r.Commands) == 0 && len(r.Paths) == 0 &&
		len(r.Extensions) == 0 && r.PayloadSizeOver == 0 {
		return fmt.Errorf("rule %q: at least one constraint is required", r.Name)
	}
	return nil
}

// RuleSet is a named collection of rules loaded from one source.
type RuleSet struct {
	// Version is the rule file schema version.
	Version int `yaml:"version"`

	// Name identifies the rule set.
	Name string `yaml:"name"`

	// Rules are the rules, evaluated in priority order.
	Rules []Rule `yaml:"rules"`
}

// Validate checks every rule and rejects duplicate names.
func (rs *RuleSet) Validate() error {
	seen := make(map[string]struct{}, len(rs.Rules))
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		if err := rule.Validate(); err != nil {
			return err
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = struct{}{}
	}
	return nil
}

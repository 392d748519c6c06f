package pattern

import (
	"context"
	"log/slog"
	"strings"

	"sentinel-hq/ceres/pkg/validation"
)

// signal is one weighted indicator the heuristic scorer looks for.
type signal struct {
	token  string
	weight float64
}

// Command-text signals, matched against the normalized lowercase command.
var commandSignals = []signal{
	{"rm -rf", 0.55},
	{"rm -fr", 0.55},
	{"mkfs", 0.7},
	{"dd of=/dev/", 0.7},
	{"shutdown", 0.5},
	{"reboot", 0.5},
	{"chmod 777", 0.4},
	{"chown -r", 0.3},
	{"curl", 0.2},
	{"wget", 0.2},
	{"| sh", 0.45},
	{"| bash", 0.45},
	{"sudo", 0.35},
	{"kill -9", 0.25},
	{"drop table", 0.6},
	{"truncate", 0.35},
	{"git push --force", 0.4},
	{"git reset --hard", 0.3},
	{"> /dev/", 0.3},
	{"eval", 0.25},
}

// Path-prefix signals for sensitive filesystem territory.
var pathSignals = []signal{
	{"/etc/", 0.35},
	{"/boot/", 0.5},
	{"/dev/", 0.4},
	{"/.ssh/", 0.55},
	{"/secrets/", 0.5},
	{"/.aws/", 0.5},
	{"/var/lib/", 0.25},
}

// Caller-supplied risk hint weights.
var hintSignals = map[string]float64{
	"destructive":     0.4,
	"privileged":      0.35,
	"network":         0.2,
	"exfiltration":    0.6,
	"untrusted_input": 0.3,
}

// HeuristicScorer is the default Tier 3 strategy: a weighted-signal model
// over command text, touched paths and caller risk hints. It is cheap,
// deterministic, and deliberately conservative about destructive verbs.
type HeuristicScorer struct {
	logger *slog.Logger
}

// NewHeuristicScorer creates the default scorer.
func NewHeuristicScorer(logger *slog.Logger) *HeuristicScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicScorer{
		logger: logger.With("component", "pattern.heuristic"),
	}
}

// Score sums the matched signal weights and clamps to [0,1]. A command with
// no signals scores 0.05 (never exactly zero: absence of evidence is not
// proof of safety).
func (s *HeuristicScorer) Score(ctx context.Context, req *validation.Request) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	command := strings.ToLower(strings.Join(strings.Fields(req.Command), " "))

	score := 0.05
	for _, sig := range commandSignals {
		if strings.Contains(command, sig.token) {
			score += sig.weight
		}
	}

	for _, p := range req.Paths {
		lower := strings.ToLower(p)
		for _, sig := range pathSignals {
			if strings.Contains(lower, sig.token) {
				score += sig.weight
				break
			}
		}
	}

	for _, hint := range req.RiskHints {
		if w, ok := hintSignals[strings.ToLower(hint)]; ok {
			score += w
		}
	}

	if score > 1 {
		score = 1
	}

	s.logger.Debug("scored request",
		"agent_id", req.AgentID,
		"fingerprint", req.Fingerprint,
		"score", score,
	)

	return score, nil
}

// Package pattern implements Tier 3 of the validation dispatcher: heuristic
// risk scoring of agent commands. The Scorer interface is a pluggable
// strategy; HeuristicScorer is the default weighted-signal model. Watermark
// mapping of scores to approve/block/gray-zone lives in the dispatcher, not
// here.
package pattern

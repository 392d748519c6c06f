package policy

import (
	"path"
	"path/filepath"
	"strings"

	"sentinel-hq/ceres/pkg/validation"
)

// matches reports whether every constraint the rule specifies is satisfied
// by the request. Unset constraints are ignored; a rule with no satisfied
// constraint sets does not match.
func (r *Rule) matches(req *validation.Request) bool {
	if r.Disabled {
		return false
	}

	if len(r.Agents) > 0 && !containsString(r.Agents, req.AgentID) {
		return false
	}

	if len(r.Commands) > 0 && !matchesCommand(r.Commands, req.Command) {
		return false
	}

	if len(r.Paths) > 0 && !matchesAnyPath(r.Paths, req.Paths) {
		return false
	}

	if len(r.Extensions) > 0 && !matchesExtension(r.Extensions, req.Paths) {
		return false
	}

	if r.PayloadSizeOver > 0 && req.PayloadSize <= r.PayloadSizeOver {
		return false
	}

	return true
}

// matchesCommand matches the whitespace-normalized command against glob
// patterns. A pattern without glob metacharacters matches as a prefix, so
// "git push" covers "git push origin main".
func matchesCommand(patterns []string, command string) bool {
	normalized := strings.Join(strings.Fields(command), " ")

	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[") {
			if ok, err := path.Match(pattern, normalized); err == nil && ok {
				return true
			}
			continue
		}
		if normalized == pattern || strings.HasPrefix(normalized, pattern+" ") {
			return true
		}
	}
	return false
}

// matchesAnyPath reports whether any request path matches any pattern.
func matchesAnyPath(patterns, paths []string) bool {
	for _, pattern := range patterns {
		for _, p := range paths {
			if ok, err := filepath.Match(pattern, p); err == nil && ok {
				return true
			}
			// Directory-prefix patterns like "/etc/*" should also cover
			// nested paths.
			if strings.HasSuffix(pattern, "/*") {
				if strings.HasPrefix(p, strings.TrimSuffix(pattern, "*")) {
					return true
				}
			}
		}
	}
	return false
}

// matchesExtension reports whether any request path carries one of the
// listed extensions.
func matchesExtension(extensions, paths []string) bool {
	for _, p := range paths {
		ext := strings.ToLower(filepath.Ext(p))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				return true
			}
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

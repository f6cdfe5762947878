package learner

import "regexp"

// Scope tags an extraction's destination within the policy's learned tiers.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
	ScopeContext Scope = "context" // actual context name carried on the mapping
)

// patternRule is one row of the ordered pattern table (spec §4.5).
// inferOriginal, when true, means the match only yields a replacement and
// the original command must come from toolAlternatives.
type patternRule struct {
	name          string
	re            *regexp.Regexp
	scope         Scope
	confidence    float64
	inferOriginal bool
	discardOnly   bool // pattern #8: matched but intentionally yields nothing
}

// rules is the fixed, ordered pattern table. Order matters: earlier rows
// claim text spans, making them ineligible for later rows.
var rules = []patternRule{
	{
		name:       "always_use_x_instead_of_y",
		re:         regexp.MustCompile(`(?i)\balways use (\S+) instead of (\S+)`),
		scope:      ScopeGlobal,
		confidence: 0.95,
	},
	{
		name:       "always_use_x_for_y",
		re:         regexp.MustCompile(`(?i)\balways use (\S+) for (\S+)`),
		scope:      ScopeGlobal,
		confidence: 0.95,
	},
	{
		name:       "for_this_project_use_x_instead_of_y",
		re:         regexp.MustCompile(`(?i)\bfor (?:this|the) project,?\s*(?:please|let's) use (\S+) instead of (\S+)`),
		scope:      ScopeProject,
		confidence: 0.92,
	},
	{
		name:          "for_this_project_use_x",
		re:            regexp.MustCompile(`(?i)\bfor (?:this|the) project,?\s*(?:please|let's) use (\S+)`),
		scope:         ScopeProject,
		confidence:    0.88,
		inferOriginal: true,
	},
	{
		name:          "for_ctx_projects_use_x",
		re:            regexp.MustCompile(`(?i)\bfor (\S+) projects,?\s*(?:please|let's) use (\S+)`),
		scope:         ScopeContext,
		confidence:    0.86,
		inferOriginal: true,
	},
	{
		name:       "lets_please_canwe_use_x_instead_of_y",
		re:         regexp.MustCompile(`(?i)\b(?:(?:let's|please|can we)\s+)?use (\S+) instead of (\S+)`),
		scope:      ScopeGlobal,
		confidence: 0.90,
	},
	{
		name:       "i_prefer_x_over_y",
		re:         regexp.MustCompile(`(?i)\bI prefer (\S+) (?:over|to) (\S+)`),
		scope:      ScopeGlobal,
		confidence: 0.85,
	},
	{
		name:        "lets_use_x_alone",
		re:          regexp.MustCompile(`(?i)\blet's use (\S+)\b`),
		discardOnly: true,
	},
}

// toolAlternatives maps a well-known replacement tool to the original it
// commonly substitutes for, used to infer the original command for
// replacement-only patterns (#4 and #5). Grounded on
// original_source/src/patterns.rs's per-project-type command tables.
var toolAlternatives = map[string]string{
	"bun":    "npm",
	"yarn":   "npm",
	"rg":     "grep",
	"fd":     "find",
	"bat":    "cat",
	"eza":    "ls",
	"podman": "docker",
	"uv":     "pip",
	"bunx":   "npx",
}

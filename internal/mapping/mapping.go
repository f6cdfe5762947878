// Package mapping implements the command-mapping resolver: a strict
// priority search across never-suggest, project-, context-, and
// global-learned, and static tiers, gated by a confidence threshold.
package mapping

import (
	"fmt"
	"sort"

	"github.com/sirmews/claude-hook-advisor/internal/matcher"
	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// Source identifies which tier produced a Result.
type Source string

const (
	SourceNeverSuggest Source = "never_suggest"
	SourceProject      Source = "project"
	SourceContext      Source = "context"
	SourceGlobal       Source = "global"
	SourceStatic       Source = "static"
)

// DefaultConfidenceThreshold is the gate learned tiers must clear to be
// visible to the resolver (spec §4.4).
const DefaultConfidenceThreshold = 0.70

// Result is the at-most-one mapping hit for a command.
type Result struct {
	Source      Source
	Pattern     string
	Replacement string
	Confidence  float64
	Command     string // full command after substitution
	Reason      string
}

// Resolve returns the first mapping that matches cmd under the priority
// order: never-suggest, project-learned, context-learned, global-learned,
// static. Learned entries below threshold are invisible to this resolver.
func Resolve(p *policy.Policy, cmd string, threshold float64) (Result, bool) {
	if res, ok := matchNeverSuggest(p, cmd); ok {
		return res, true
	}
	if res, ok := matchLearnedTier(SourceProject, p.Learned.Project, cmd, threshold); ok {
		return res, true
	}
	for _, ctxName := range sortedContextNames(p.Learned.Context) {
		if res, ok := matchLearnedTier(SourceContext, p.Learned.Context[ctxName], cmd, threshold); ok {
			return res, true
		}
	}
	if res, ok := matchLearnedTier(SourceGlobal, p.Learned.Global, cmd, threshold); ok {
		return res, true
	}
	if res, ok := matchStatic(p, cmd); ok {
		return res, true
	}
	return Result{}, false
}

func matchNeverSuggest(p *policy.Policy, cmd string) (Result, bool) {
	pairs := make([]matcher.Pair, 0, len(p.NeverSuggest))
	for pattern, replacement := range p.NeverSuggest {
		pairs = append(pairs, matcher.Pair{Pattern: pattern, Replacement: replacement})
	}
	sortPairs(pairs)

	m, ok := matcher.MatchPrimary(pairs, cmd)
	if !ok {
		return Result{}, false
	}
	return Result{
		Source:      SourceNeverSuggest,
		Pattern:     m.Pattern,
		Replacement: m.Replacement,
		Confidence:  1.0,
		Command:     m.Command,
		Reason:      fmt.Sprintf("'%s' was explicitly rejected in favor of never suggesting '%s'; allowing unchanged", m.Pattern, m.Replacement),
	}, true
}

func matchLearnedTier(source Source, tier map[string]policy.LearnedMapping, cmd string, threshold float64) (Result, bool) {
	keys := make([]string, 0, len(tier))
	for k := range tier {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]matcher.Pair, 0, len(keys))
	byPattern := map[string]policy.LearnedMapping{}
	for _, k := range keys {
		lm := tier[k]
		if lm.Confidence < threshold {
			continue
		}
		pairs = append(pairs, matcher.Pair{Pattern: k, Replacement: lm.Replacement})
		byPattern[k] = lm
	}

	m, ok := matcher.MatchPrimary(pairs, cmd)
	if !ok {
		return Result{}, false
	}
	lm := byPattern[m.Pattern]
	return Result{
		Source:      source,
		Pattern:     m.Pattern,
		Replacement: m.Replacement,
		Confidence:  lm.Confidence,
		Command:     m.Command,
		Reason: fmt.Sprintf(
			"'%s' is learned (%s, confidence %.2f) to use '%s' instead. Try: %s",
			m.Pattern, source, lm.Confidence, m.Replacement, m.Command,
		),
	}, true
}

func matchStatic(p *policy.Policy, cmd string) (Result, bool) {
	keys := make([]string, 0, len(p.StaticMappings))
	for k := range p.StaticMappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]matcher.Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, matcher.Pair{Pattern: k, Replacement: p.StaticMappings[k]})
	}

	m, ok := matcher.MatchPrimary(pairs, cmd)
	if !ok {
		return Result{}, false
	}
	return Result{
		Source:      SourceStatic,
		Pattern:     m.Pattern,
		Replacement: m.Replacement,
		Confidence:  1.0,
		Command:     m.Command,
		Reason: fmt.Sprintf(
			"'%s' is mapped to use '%s' instead. Try: %s",
			m.Pattern, m.Replacement, m.Command,
		),
	}, true
}

func sortedContextNames(ctx map[string]map[string]policy.LearnedMapping) []string {
	names := make([]string, 0, len(ctx))
	for name := range ctx {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortPairs(pairs []matcher.Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Pattern < pairs[j].Pattern })
}

// Package learner extracts command-preference mappings from free-text
// prompts and persists them into the policy's learned tiers.
package learner

import (
	"strings"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// ExtractedMapping is one mapping mined from a prompt.
type ExtractedMapping struct {
	Original    string
	Replacement string
	Scope       Scope
	Context     string // non-empty only when Scope == ScopeContext
	Confidence  float64
	Source      string // always "natural_language"
}

const sourceNaturalLanguage = "natural_language"

// span is a half-open byte range already claimed by an earlier pattern.
type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Extract scans prompt against the ordered pattern table and returns every
// mapping found. Patterns are checked in table order; once a byte range is
// claimed by an earlier pattern it is ineligible for later patterns.
func Extract(prompt string) []ExtractedMapping {
	var claimed []span
	var out []ExtractedMapping

	for _, rule := range rules {
		idxs := rule.re.FindAllStringSubmatchIndex(prompt, -1)
		for _, idx := range idxs {
			sp := span{start: idx[0], end: idx[1]}
			if overlapsAny(sp, claimed) {
				continue
			}
			claimed = append(claimed, sp)

			if rule.discardOnly {
				continue
			}

			em, ok := buildMapping(rule, prompt, idx)
			if !ok {
				continue
			}
			out = append(out, em)
		}
	}

	return out
}

func overlapsAny(sp span, claimed []span) bool {
	for _, c := range claimed {
		if sp.overlaps(c) {
			return true
		}
	}
	return false
}

// group returns the text of submatch group g given a FindAllStringSubmatchIndex
// result row, or "" if the group did not participate.
func group(prompt string, idx []int, g int) string {
	lo, hi := idx[2*g], idx[2*g+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return prompt[lo:hi]
}

func buildMapping(rule patternRule, prompt string, idx []int) (ExtractedMapping, bool) {
	switch {
	case rule.scope == ScopeContext:
		ctx := strings.ToLower(group(prompt, idx, 1))
		replacement := group(prompt, idx, 2)
		original, ok := toolAlternatives[strings.ToLower(replacement)]
		if !ok {
			return ExtractedMapping{}, false
		}
		return ExtractedMapping{
			Original:    original,
			Replacement: replacement,
			Scope:       ScopeContext,
			Context:     ctx,
			Confidence:  rule.confidence,
			Source:      sourceNaturalLanguage,
		}, true

	case rule.inferOriginal:
		replacement := group(prompt, idx, 1)
		original, ok := toolAlternatives[strings.ToLower(replacement)]
		if !ok {
			return ExtractedMapping{}, false
		}
		return ExtractedMapping{
			Original:    original,
			Replacement: replacement,
			Scope:       rule.scope,
			Confidence:  rule.confidence,
			Source:      sourceNaturalLanguage,
		}, true

	default:
		replacement := group(prompt, idx, 1)
		original := group(prompt, idx, 2)
		if original == "" || replacement == "" {
			return ExtractedMapping{}, false
		}
		return ExtractedMapping{
			Original:    original,
			Replacement: replacement,
			Scope:       rule.scope,
			Confidence:  rule.confidence,
			Source:      sourceNaturalLanguage,
		}, true
	}
}

// Apply writes every extracted mapping into p's learned tiers. When the
// same original token already exists in the destination scope, the newest
// extraction replaces it (reference policy: replace, not merge), while
// learning_meta counters accumulate regardless.
func Apply(p *policy.Policy, mappings []ExtractedMapping, now time.Time) {
	for _, em := range mappings {
		lm := policy.LearnedMapping{
			Replacement: em.Replacement,
			Confidence:  em.Confidence,
			LearnedAt:   now,
			LearnedFrom: em.Source,
			UsageCount:  1,
		}

		switch em.Scope {
		case ScopeGlobal:
			p.Learned.Global[em.Original] = lm
		case ScopeProject:
			p.Learned.Project[em.Original] = lm
		case ScopeContext:
			lm.Context = em.Context
			if p.Learned.Context[em.Context] == nil {
				p.Learned.Context[em.Context] = map[string]policy.LearnedMapping{}
			}
			p.Learned.Context[em.Context][em.Original] = lm
		}

		p.LearningMetadata.TotalMappingsLearned++
		p.LearningMetadata.SessionMappings++
	}
	p.LearningMetadata.LastUpdated = now
}

package outcome

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// MinExecutionsForHousekeeping is the minimum number of recorded
// executions before housekeeping is allowed to run at all.
const MinExecutionsForHousekeeping = 10

// NeverSuggestPromotionThreshold and NeverSuggestEffectivenessCeiling
// gate promotion out of the learned tiers (spec §4.6).
const (
	NeverSuggestPromotionThreshold    = 5
	NeverSuggestEffectivenessCeiling = 0.30
)

// MaxDecay and DecayPerWeek bound the per-housekeeping-run confidence decay.
const (
	MaxDecay    = 0.30
	DecayPerWeek = 0.02
)

// RunHousekeeping performs decay and never-suggest promotion at most once
// per day per policy, and only once at least MinExecutionsForHousekeeping
// executions have been recorded. trace receives one diagnostic line per
// promotion; pass nil to discard them.
func RunHousekeeping(p *policy.Policy, now time.Time, trace func(string)) {
	h := &p.ExecutionHistory

	if len(h.CommandExecutions) < MinExecutionsForHousekeeping {
		return
	}
	if !h.LastHousekeeping.IsZero() && now.Sub(h.LastHousekeeping) < 24*time.Hour {
		return
	}

	decay(p, now)
	promoteToNeverSuggest(p, trace)

	h.LastHousekeeping = now
}

// decay reduces every learned mapping's confidence based on days since
// learned_at, operating on the original LearnedAt rather than a rolling
// counter (spec §4.6).
func decay(p *policy.Policy, now time.Time) {
	decayTier := func(tier map[string]policy.LearnedMapping) {
		for key, lm := range tier {
			days := now.Sub(lm.LearnedAt).Hours() / 24
			if days < 0 {
				days = 0
			}
			reduction := minFloat(MaxDecay, DecayPerWeek*days/7)
			lm.Confidence = policy.ClampConfidence(lm.Confidence - reduction)
			tier[key] = lm
		}
	}

	decayTier(p.Learned.Global)
	decayTier(p.Learned.Project)
	for _, ctxTier := range p.Learned.Context {
		decayTier(ctxTier)
	}
}

// promoteToNeverSuggest moves any suggestion_stats entry with
// times_accepted >= NeverSuggestPromotionThreshold and effectiveness below
// NeverSuggestEffectivenessCeiling into never_suggest, deleting it from
// every learned tier.
func promoteToNeverSuggest(p *policy.Policy, trace func(string)) {
	h := &p.ExecutionHistory

	for key, stat := range h.SuggestionStats {
		if stat.TimesAccepted < NeverSuggestPromotionThreshold {
			continue
		}
		if stat.Effectiveness >= NeverSuggestEffectivenessCeiling {
			continue
		}

		original, replacement, ok := splitSuggestionKey(key)
		if !ok {
			continue
		}

		delete(p.Learned.Global, original)
		delete(p.Learned.Project, original)
		for _, ctxTier := range p.Learned.Context {
			delete(ctxTier, original)
		}

		p.NeverSuggest[original] = replacement

		if trace != nil {
			trace(fmt.Sprintf("promoted %q -> %q to never_suggest (times_accepted=%d, effectiveness=%.2f)",
				original, replacement, stat.TimesAccepted, stat.Effectiveness))
		}
	}
}

func splitSuggestionKey(key string) (original, replacement string, ok bool) {
	const sep = "→"
	idx := strings.Index(key, sep)
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+len(sep):], true
}

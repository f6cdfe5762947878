package outcome

import (
	"testing"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

func policyWithExecutions(n int) *policy.Policy {
	p := freshPolicy()
	for i := 0; i < n; i++ {
		p.ExecutionHistory.CommandExecutions = append(p.ExecutionHistory.CommandExecutions, policy.CommandExecution{})
	}
	return p
}

func TestRunHousekeepingSkipsBelowMinimumExecutions(t *testing.T) {
	p := policyWithExecutions(MinExecutionsForHousekeeping - 1)
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.90, LearnedAt: time.Now().Add(-30 * 24 * time.Hour)}

	RunHousekeeping(p, time.Now(), nil)

	if p.Learned.Global["npm"].Confidence != 0.90 {
		t.Errorf("Confidence = %v, want unchanged below the execution floor", p.Learned.Global["npm"].Confidence)
	}
}

func TestRunHousekeepingDecaysOldMappings(t *testing.T) {
	p := policyWithExecutions(MinExecutionsForHousekeeping)
	p.Learned.Global["npm"] = policy.LearnedMapping{
		Replacement: "bun",
		Confidence:  0.90,
		LearnedAt:   time.Now().Add(-70 * 24 * time.Hour), // 10 weeks old
	}

	RunHousekeeping(p, time.Now(), nil)

	if p.Learned.Global["npm"].Confidence >= 0.90 {
		t.Errorf("Confidence = %v, want decayed below 0.90 after 10 weeks", p.Learned.Global["npm"].Confidence)
	}
}

func TestRunHousekeepingOnlyOncePerDay(t *testing.T) {
	p := policyWithExecutions(MinExecutionsForHousekeeping)
	now := time.Now()
	p.ExecutionHistory.LastHousekeeping = now.Add(-1 * time.Hour)
	p.Learned.Global["npm"] = policy.LearnedMapping{
		Replacement: "bun",
		Confidence:  0.90,
		LearnedAt:   now.Add(-365 * 24 * time.Hour),
	}

	RunHousekeeping(p, now, nil)

	if p.Learned.Global["npm"].Confidence != 0.90 {
		t.Errorf("Confidence = %v, want unchanged within the 24h housekeeping gate", p.Learned.Global["npm"].Confidence)
	}
}

func TestPromoteToNeverSuggest(t *testing.T) {
	p := policyWithExecutions(MinExecutionsForHousekeeping)
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.90, LearnedAt: time.Now()}
	key := policy.SuggestionKey("npm", "bun")
	p.ExecutionHistory.SuggestionStats[key] = policy.SuggestionStat{
		TimesAccepted:   NeverSuggestPromotionThreshold,
		TimesSuccessful: 1,
		Effectiveness:   0.20,
	}

	var traced []string
	RunHousekeeping(p, time.Now(), func(msg string) { traced = append(traced, msg) })

	if _, stillLearned := p.Learned.Global["npm"]; stillLearned {
		t.Error("npm should be removed from the learned tier after promotion")
	}
	if p.NeverSuggest["npm"] != "bun" {
		t.Errorf("NeverSuggest[npm] = %q, want %q", p.NeverSuggest["npm"], "bun")
	}
	if len(traced) != 1 {
		t.Errorf("trace callback fired %d times, want 1", len(traced))
	}
}

func TestPromoteToNeverSuggestSkipsEffectiveMappings(t *testing.T) {
	p := policyWithExecutions(MinExecutionsForHousekeeping)
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.90, LearnedAt: time.Now()}
	key := policy.SuggestionKey("npm", "bun")
	p.ExecutionHistory.SuggestionStats[key] = policy.SuggestionStat{
		TimesAccepted:   2 * NeverSuggestPromotionThreshold,
		TimesSuccessful: 9,
		Effectiveness:   0.90,
	}

	RunHousekeeping(p, time.Now(), nil)

	if _, ok := p.NeverSuggest["npm"]; ok {
		t.Error("an effective mapping should never be promoted to never_suggest")
	}
}

func TestSplitSuggestionKey(t *testing.T) {
	original, replacement, ok := splitSuggestionKey(policy.SuggestionKey("npm", "bun"))
	if !ok || original != "npm" || replacement != "bun" {
		t.Errorf("splitSuggestionKey() = (%q, %q, %v), want (npm, bun, true)", original, replacement, ok)
	}
	if _, _, ok := splitSuggestionKey("no-separator-here"); ok {
		t.Error("splitSuggestionKey() should fail on a key missing the separator")
	}
}

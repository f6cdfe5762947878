package outcome

import (
	"testing"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

func freshPolicy() *policy.Policy {
	return &policy.Policy{
		StaticMappings: map[string]string{},
		Learned: policy.LearnedTiers{
			Global:  map[string]policy.LearnedMapping{},
			Project: map[string]policy.LearnedMapping{},
			Context: map[string]map[string]policy.LearnedMapping{},
		},
		NeverSuggest: map[string]string{},
		ExecutionHistory: policy.ExecutionHistory{
			SuggestionStats:     map[string]policy.SuggestionStat{},
			MappingCorrelations: map[string]policy.MappingCorrelation{},
		},
	}
}

func TestAnalyzeCorrelatesSuggestedCommand(t *testing.T) {
	p := freshPolicy()
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.80}

	now := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	zero := 0
	Analyze(p, Execution{Command: "bun install", ExitCode: &zero, Now: now})

	stat := p.ExecutionHistory.SuggestionStats[policy.SuggestionKey("npm", "bun")]
	if stat.TimesAccepted != 1 || stat.TimesSuccessful != 1 {
		t.Errorf("SuggestionStat = %+v, want TimesAccepted=1 TimesSuccessful=1", stat)
	}
	if p.Learned.Global["npm"].Confidence <= 0.80 {
		t.Errorf("Confidence = %v, want increase after a successful correlated execution", p.Learned.Global["npm"].Confidence)
	}
	if len(p.ExecutionHistory.CommandExecutions) != 1 {
		t.Fatalf("CommandExecutions = %v, want 1 entry", p.ExecutionHistory.CommandExecutions)
	}
	entry := p.ExecutionHistory.CommandExecutions[0]
	if !entry.WasSuggested || entry.OriginalCommand != "npm" {
		t.Errorf("entry = %+v, want WasSuggested=true OriginalCommand=npm", entry)
	}
}

func TestAnalyzeFailureDecreasesConfidence(t *testing.T) {
	p := freshPolicy()
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.80}

	one := 1
	Analyze(p, Execution{Command: "bun install", ExitCode: &one, Now: time.Now()})

	if p.Learned.Global["npm"].Confidence >= 0.80 {
		t.Errorf("Confidence = %v, want decrease after a failed correlated execution", p.Learned.Global["npm"].Confidence)
	}
}

func TestAnalyzeUncorrelatedCommandStillRecordsExecution(t *testing.T) {
	p := freshPolicy()
	Analyze(p, Execution{Command: "ls -la", Now: time.Now()})

	if len(p.ExecutionHistory.CommandExecutions) != 1 {
		t.Fatalf("CommandExecutions = %v, want 1 entry", p.ExecutionHistory.CommandExecutions)
	}
	if p.ExecutionHistory.CommandExecutions[0].WasSuggested {
		t.Error("WasSuggested = true, want false for an unmapped command")
	}
}

func TestAnalyzeNilExitCodeTreatedAsSuccess(t *testing.T) {
	p := freshPolicy()
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.80}

	Analyze(p, Execution{Command: "bun install", ExitCode: nil, Now: time.Now()})

	if !p.ExecutionHistory.CommandExecutions[0].Success {
		t.Error("Success = false, want true when exit code is absent")
	}
}

func TestAnalyzeRingBufferTrimsOldest(t *testing.T) {
	p := freshPolicy()
	for i := 0; i < policy.MaxCommandExecutions+5; i++ {
		Analyze(p, Execution{Command: "ls", Now: time.Now()})
	}
	if len(p.ExecutionHistory.CommandExecutions) != policy.MaxCommandExecutions {
		t.Errorf("CommandExecutions length = %d, want %d", len(p.ExecutionHistory.CommandExecutions), policy.MaxCommandExecutions)
	}
}

func TestAnalyzeContextConfidenceAdjustsOnlyTheMatchedContext(t *testing.T) {
	p := freshPolicy()
	p.Learned.Context["backend"] = map[string]policy.LearnedMapping{
		"npm": {Replacement: "yarn", Confidence: 0.80},
	}
	p.Learned.Context["frontend"] = map[string]policy.LearnedMapping{
		"npm": {Replacement: "bun", Confidence: 0.80},
	}

	zero := 0
	Analyze(p, Execution{Command: "bun install", ExitCode: &zero, Now: time.Now()})

	if p.Learned.Context["frontend"]["npm"].Confidence <= 0.80 {
		t.Errorf("frontend confidence = %v, want increase (its replacement matched the executed command)",
			p.Learned.Context["frontend"]["npm"].Confidence)
	}
	if p.Learned.Context["backend"]["npm"].Confidence != 0.80 {
		t.Errorf("backend confidence = %v, want unchanged (its replacement did not match)",
			p.Learned.Context["backend"]["npm"].Confidence)
	}
}

func TestAnalyzeStaticMappingHasNoAdjustableConfidence(t *testing.T) {
	p := freshPolicy()
	p.StaticMappings["npm"] = "bun"

	zero := 0
	Analyze(p, Execution{Command: "bun install", ExitCode: &zero, Now: time.Now()})

	if _, ok := p.Learned.Global["npm"]; ok {
		t.Error("a static mapping should never spawn a learned-tier entry")
	}
}

package mapping

import (
	"strings"
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
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	p := freshPolicy()
	p.StaticMappings["npm"] = "static-wins-last"
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "global-wins-third", Confidence: 0.9}
	p.Learned.Context["frontend"] = map[string]policy.LearnedMapping{
		"npm": {Replacement: "context-wins-second", Confidence: 0.9},
	}
	p.Learned.Project["npm"] = policy.LearnedMapping{Replacement: "project-wins-first", Confidence: 0.9}

	res, ok := Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Source != SourceProject || res.Replacement != "project-wins-first" {
		t.Errorf("got source=%s replacement=%q, want project tier to win", res.Source, res.Replacement)
	}

	delete(p.Learned.Project, "npm")
	res, ok = Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok || res.Source != SourceContext {
		t.Errorf("with project cleared, want context tier to win, got source=%s ok=%v", res.Source, ok)
	}

	delete(p.Learned.Context, "frontend")
	res, ok = Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok || res.Source != SourceGlobal {
		t.Errorf("with context cleared, want global tier to win, got source=%s ok=%v", res.Source, ok)
	}

	delete(p.Learned.Global, "npm")
	res, ok = Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok || res.Source != SourceStatic {
		t.Errorf("with global cleared, want static tier to win, got source=%s ok=%v", res.Source, ok)
	}
}

func TestResolveNeverSuggestBeatsEverything(t *testing.T) {
	p := freshPolicy()
	p.StaticMappings["npm"] = "bun"
	p.NeverSuggest["npm"] = "bun"

	res, ok := Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Source != SourceNeverSuggest {
		t.Errorf("Source = %s, want %s", res.Source, SourceNeverSuggest)
	}
}

func TestResolveBelowThresholdIsInvisible(t *testing.T) {
	p := freshPolicy()
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.5}

	if _, ok := Resolve(p, "npm install", DefaultConfidenceThreshold); ok {
		t.Error("learned mapping below threshold should not be visible to the resolver")
	}
}

func TestResolveNoMatch(t *testing.T) {
	p := freshPolicy()
	if _, ok := Resolve(p, "ls -la", DefaultConfidenceThreshold); ok {
		t.Error("expected no match for an unmapped command")
	}
}

func TestResolveReasonMentionsReplacement(t *testing.T) {
	p := freshPolicy()
	p.StaticMappings["npm"] = "bun"

	res, ok := Resolve(p, "npm install", DefaultConfidenceThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Reason == "" {
		t.Error("expected a non-empty human-readable reason")
	}
	if !strings.Contains(res.Reason, "bun install") {
		t.Errorf("Reason = %q, want it to mention the replacement command %q", res.Reason, "bun install")
	}
	if res.Command != "bun install" {
		t.Errorf("Command = %q, want %q", res.Command, "bun install")
	}
}

func TestResolveLearnedResultCarriesConfidence(t *testing.T) {
	p := freshPolicy()
	now := time.Now()
	p.Learned.Global["npm"] = policy.LearnedMapping{Replacement: "bun", Confidence: 0.95, LearnedAt: now}

	res, ok := Resolve(p, "npm test", DefaultConfidenceThreshold)
	if !ok || res.Confidence != 0.95 {
		t.Errorf("got ok=%v confidence=%v, want ok=true confidence=0.95", ok, res.Confidence)
	}
}

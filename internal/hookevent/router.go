package hookevent

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirmews/claude-hook-advisor/internal/diag"
	"github.com/sirmews/claude-hook-advisor/internal/directory"
	"github.com/sirmews/claude-hook-advisor/internal/learner"
	"github.com/sirmews/claude-hook-advisor/internal/mapping"
	"github.com/sirmews/claude-hook-advisor/internal/outcome"
	"github.com/sirmews/claude-hook-advisor/internal/policy"
)

// Options configures one Route invocation.
type Options struct {
	ConfigPath string
	Replace    bool
	Env        directory.Env
	Now        func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// Route reads one hook event from stdin, dispatches it, and writes the
// event-appropriate response to stdout. Diagnostics go to stderr. It
// returns the process exit code: 1 when stdin cannot be read, when the
// payload is not valid JSON, or when an existing policy file cannot be
// read or parsed; 0 in every other case (spec §7).
func Route(stdin io.Reader, stdout, stderr io.Writer, opts Options) int {
	trace := diag.New(stderr)

	body, err := io.ReadAll(stdin)
	if err != nil {
		trace.Trace("error: reading hook payload: %v", err)
		return 1
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		trace.Trace("error: hook payload is not valid JSON: %v", err)
		return 1
	}

	pol, err := policy.Load(opts.ConfigPath, func(msg string) { trace.Trace("%s", msg) })
	if err != nil {
		trace.Trace("error: %v", err)
		return 1
	}

	switch env.HookEventName {
	case EventPreToolUse:
		handlePreToolUse(body, stdout, trace, pol, opts)
	case EventUserPromptSubmit:
		handleUserPromptSubmit(body, stdout, trace, pol, opts)
	case EventPostToolUse:
		handlePostToolUse(body, trace, pol, opts)
	default:
		trace.Trace("warning: unrecognized hook_event_name %q; ignoring", env.HookEventName)
	}

	return 0
}

func handlePreToolUse(body []byte, stdout io.Writer, trace diag.Writer, pol *policy.Policy, opts Options) {
	var in preToolPayload
	if err := json.Unmarshal(body, &in); err != nil {
		trace.Trace("error: malformed PreToolUse payload: %v", err)
		return
	}
	if in.ToolName != bashToolName || in.ToolInput.Command == "" {
		return
	}

	result, ok := mapping.Resolve(pol, in.ToolInput.Command, mapping.DefaultConfidenceThreshold)
	if !ok || result.Source == mapping.SourceNeverSuggest {
		return
	}

	out := decision{Decision: decisionBlock, Reason: result.Reason}
	if opts.Replace {
		out.Decision = decisionReplace
		out.ReplacementCommand = result.Command
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		trace.Trace("error: encoding decision: %v", err)
		return
	}
	fmt.Fprintln(stdout, string(encoded))
}

func handleUserPromptSubmit(body []byte, stdout io.Writer, trace diag.Writer, pol *policy.Policy, opts Options) {
	var in userPromptPayload
	if err := json.Unmarshal(body, &in); err != nil {
		trace.Trace("error: malformed UserPromptSubmit payload: %v", err)
		return
	}

	for _, res := range directory.Detect(pol, in.Prompt, opts.Env) {
		fmt.Fprintf(stdout, "Directory reference '%s' resolved to: %s\n", res.Alias, res.CanonicalPath)
		for _, sub := range res.Substitutions {
			fmt.Fprintf(stdout, "  %s = %s\n", sub.Variable, sub.Value)
		}
	}

	mappings := learner.Extract(in.Prompt)
	if len(mappings) == 0 {
		return
	}

	now := opts.now()
	learner.Apply(pol, mappings, now)
	for _, em := range mappings {
		trace.Trace("learned: %q -> %q (%s, confidence %.2f)", em.Original, em.Replacement, em.Scope, em.Confidence)
	}

	if err := policy.SaveAtomic(opts.ConfigPath, pol); err != nil {
		trace.Trace("error: saving policy: %v", err)
	}
}

func handlePostToolUse(body []byte, trace diag.Writer, pol *policy.Policy, opts Options) {
	var in postToolPayload
	if err := json.Unmarshal(body, &in); err != nil {
		trace.Trace("error: malformed PostToolUse payload: %v", err)
		return
	}
	if in.ToolName != bashToolName || in.ToolInput.Command == "" {
		return
	}

	now := opts.now()
	exec := outcome.Execution{
		Command:   in.ToolInput.Command,
		ExitCode:  in.ToolResponse.ExitCode,
		SessionID: in.SessionID,
		Now:       now,
	}
	if in.ToolResponse.DurationMS != nil {
		d := time.Duration(*in.ToolResponse.DurationMS) * time.Millisecond
		exec.Duration = &d
	}

	// Housekeeping evaluates state accumulated before this event, so a
	// promotion decision reflects prior executions, not this one's own
	// contribution to suggestion_stats.
	outcome.RunHousekeeping(pol, now, func(msg string) { trace.Trace("%s", msg) })
	outcome.Analyze(pol, exec)

	if err := policy.SaveAtomic(opts.ConfigPath, pol); err != nil {
		trace.Trace("error: saving policy: %v", err)
	}
}

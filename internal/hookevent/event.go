// Package hookevent classifies a hook payload by its hook_event_name tag,
// dispatches to the matching component, and emits the event-appropriate
// response envelope (spec §4.7, §6).
package hookevent

import "encoding/json"

// Event names recognized on hook_event_name.
const (
	EventPreToolUse       = "PreToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
	EventPostToolUse      = "PostToolUse"
)

// envelope is parsed first, to read only the tag before re-parsing into
// the per-event shape (spec §9 "Heterogeneous payloads").
type envelope struct {
	HookEventName string `json:"hook_event_name"`
}

// ToolInput covers the union of fields the host sends for Bash and
// file-editing tools. Only Command is used by this core; the rest is
// accepted and ignored so future host fields never break parsing.
type ToolInput struct {
	Command     string          `json:"command,omitempty"`
	Description string          `json:"description,omitempty"`
	FilePath    string          `json:"file_path,omitempty"`
	Content     string          `json:"content,omitempty"`
	OldString   string          `json:"old_string,omitempty"`
	NewString   string          `json:"new_string,omitempty"`
	Edits       json.RawMessage `json:"edits,omitempty"`
}

// preToolPayload is the PreToolUse event shape.
type preToolPayload struct {
	SessionID     string    `json:"session_id"`
	HookEventName string    `json:"hook_event_name"`
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
}

// userPromptPayload is the UserPromptSubmit event shape.
type userPromptPayload struct {
	SessionID     string `json:"session_id"`
	HookEventName string `json:"hook_event_name"`
	Prompt        string `json:"prompt"`
}

// toolResponse is the post-execution result the host reports.
type toolResponse struct {
	ExitCode   *int   `json:"exit_code,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	DurationMS *int64 `json:"duration_ms,omitempty"`
}

// postToolPayload is the PostToolUse event shape.
type postToolPayload struct {
	SessionID     string       `json:"session_id"`
	HookEventName string       `json:"hook_event_name"`
	ToolName      string       `json:"tool_name"`
	ToolInput     ToolInput    `json:"tool_input"`
	ToolResponse  toolResponse `json:"tool_response"`
}

// decision is the pre-tool response envelope.
type decision struct {
	Decision           string `json:"decision"`
	Reason             string `json:"reason"`
	ReplacementCommand string `json:"replacement_command,omitempty"`
}

const (
	decisionBlock   = "block"
	decisionReplace = "replace"
	decisionAllow   = "allow"

	bashToolName = "Bash"
)

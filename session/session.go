package session

import (
	"encoding/json"
	"time"
)

// State is the lifecycle state of a session. States advance monotonically
// except failed, which is terminal from any running state.
type State string

const (
	StateCreated      State = "created"
	StateScriptsReady State = "scripts_ready"
	StateQueued       State = "queued"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

const (
	ModeVideos = "videos"
	ModeImages = "images"
)

type Progress struct {
	TotalSegments int `json:"total_segments" bson:"total_segments"`
	Completed     int `json:"completed" bson:"completed"`
}

// Session is the full status snapshot of one idea-to-video job. It is
// persisted as a whole after every state transition so a reader observing
// mid-run state never needs to replay history.
type Session struct {
	ID             string            `json:"session_id" bson:"session_id"`
	Idea           string            `json:"idea" bson:"idea"`
	State          State             `json:"state" bson:"state"`
	ScriptKeys     []string          `json:"script_keys,omitempty" bson:"script_keys,omitempty"`
	SelectedScript string            `json:"selected_script,omitempty" bson:"selected_script,omitempty"`
	Voice          string            `json:"voice,omitempty" bson:"voice,omitempty"`
	Mode           string            `json:"mode,omitempty" bson:"mode,omitempty"`
	Progress       Progress          `json:"progress" bson:"progress"`
	CurrentSegment string            `json:"current_segment,omitempty" bson:"current_segment,omitempty"`
	Artifacts      map[string]string `json:"artifacts" bson:"artifacts"`
	Error          string            `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}

// ImagePrompt is one generated image prompt.
type ImagePrompt struct {
	Prompt string `json:"prompt"`
}

// SegmentPrompts holds the two image prompts generated for one segment.
type SegmentPrompts struct {
	Image1 ImagePrompt `json:"image1"`
	Image2 ImagePrompt `json:"image2"`
}

// Empty reports whether no usable prompt text is present.
func (p SegmentPrompts) Empty() bool {
	return p.Image1.Prompt == "" && p.Image2.Prompt == ""
}

// CandidateScript is one LLM-proposed script: either a valid mapping from
// segment key to narration text, or an invalid marker. The generator signals
// a failed constraint by emitting a non-object value (the string "ERROR"),
// which decodes here as Valid=false.
type CandidateScript struct {
	Valid    bool
	Segments map[string]string
}

func (c *CandidateScript) UnmarshalJSON(data []byte) error {
	var segments map[string]string
	if err := json.Unmarshal(data, &segments); err == nil {
		c.Valid = true
		c.Segments = segments
		return nil
	}
	c.Valid = false
	c.Segments = nil
	return nil
}

func (c CandidateScript) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return json.Marshal("ERROR")
	}
	return json.Marshal(c.Segments)
}

// ScriptSet maps script keys (script1..script4) to candidate scripts.
type ScriptSet map[string]CandidateScript

// ValidKeys returns the keys of all valid scripts, in map order.
func (s ScriptSet) ValidKeys() []string {
	var keys []string
	for key, script := range s {
		if script.Valid {
			keys = append(keys, key)
		}
	}
	return keys
}

// PromptDoc is the on-disk shape of the image prompt cache:
// script key -> segment key -> prompts.
type PromptDoc map[string]map[string]SegmentPrompts

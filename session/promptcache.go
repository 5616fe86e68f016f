package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	promptsDir  = "image_prompts"
	promptsFile = "ALL_PROMPTS.json"
)

func (s *Store) promptsPath(id string) string {
	return filepath.Join(s.Dir(id), promptsDir, promptsFile)
}

// LoadPrompts returns the full prompt cache for a session. A missing or
// unreadable cache is treated as empty, never as an error, because prompt
// reuse is an optimization on top of regeneration.
func (s *Store) LoadPrompts(id string) PromptDoc {
	data, err := os.ReadFile(s.promptsPath(id))
	if err != nil {
		return PromptDoc{}
	}
	var doc PromptDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return PromptDoc{}
	}
	return doc
}

// CachedPrompts looks up the prompts already generated for one segment.
func (s *Store) CachedPrompts(id, scriptKey, segKey string) (SegmentPrompts, bool) {
	doc := s.LoadPrompts(id)
	segments, ok := doc[scriptKey]
	if !ok {
		return SegmentPrompts{}, false
	}
	prompts, ok := segments[segKey]
	if !ok || prompts.Empty() {
		return SegmentPrompts{}, false
	}
	return prompts, true
}

// MergePrompts records one segment's prompts without disturbing anything else
// in the cache. The latest on-disk document is re-read before writing so a
// stale in-memory copy can never erase prompts recorded by an earlier run.
func (s *Store) MergePrompts(id, scriptKey, segKey string, prompts SegmentPrompts) error {
	if err := os.MkdirAll(filepath.Dir(s.promptsPath(id)), 0755); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}

	doc := s.LoadPrompts(id)
	if doc[scriptKey] == nil {
		doc[scriptKey] = map[string]SegmentPrompts{}
	}
	doc[scriptKey][segKey] = prompts

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	if err := os.WriteFile(s.promptsPath(id), data, 0644); err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	return nil
}

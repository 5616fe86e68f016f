package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"story_video_automation/session"
)

const scriptSystemPrompt = `You must think of a story script according to user idea and generate exactly four scripts, output in JSON format as follows:
{
  "script1": { "segment1": "...", "segment2": "...", ... },
  "script2": { ... },
  "script3": { ... },
  "script4": { ... }
}

Requirements for each script:
1. Exactly 150 words total.
2. Divide into segments labeled "segment1", "segment2", etc. there should be enough segments to cover the entire script.
3. Each segment must contain exactly 15 words (split by whitespace).
4. The scripts must have a start and a proper conclusion.
5. If a script fails any constraint, its value must be the string "ERROR".
6. If a user wants you to generate a script in Hindi language then that script in Hindi language and should contain a lot of funny words.
7. Maximum only 6 segments

Generate scripts based on the user's prompt.`

// GenerateScripts asks the model for four candidate scripts. Candidates the
// model marked unusable come back with Valid=false; the caller decides
// whether enough survive.
func (c *Client) GenerateScripts(ctx context.Context, idea string) (session.ScriptSet, error) {
	content, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: scriptSystemPrompt},
			{Role: "user", Content: idea},
		},
		Temperature:    1,
		MaxTokens:      1024,
		TopP:           1,
		ResponseFormat: jsonResponseFormat(),
	})
	if err != nil {
		return nil, err
	}

	var set session.ScriptSet
	if err := json.Unmarshal([]byte(content), &set); err != nil {
		return nil, fmt.Errorf("parse scripts: %w", err)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("model returned no scripts")
	}
	return set, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"story_video_automation/session"
)

const promptSystemPrompt = "You are an expert cinematic image prompt engineer. " +
	"Use the full story context and the specified current segment to craft two distinct prompts. " +
	"Also keep in mind understand the scripts correctly and then generate images prompt according to the scripts demand, mention gender too; also use creative words too if needed like a human cat, muscular <anything which is in the script> for objects." +
	`Return ONLY strict JSON: {"image1":{"prompt":str}, "image2":{"prompt":str}}. ` +
	"Each prompt must be exactly one sentence, no quotes, no lists, no line breaks. " +
	"Ensure the two prompts differ in angle/composition/mood, and maintain continuity with prior segments when provided."

const promptStyleInstruction = "Generate two highly detailed cinematic image prompts (image1, image2), 55-75 tokens each. " +
	"Each prompt must be a single sentence (no line breaks). Include camera angle and clear subject motion. " +
	"Avoid using character names; use descriptive objects (e.g., 'a human', 'a dog'). " +
	"Ensure image1 and image2 differ in composition/angle/mood. Maintain story continuity with prior segments when provided."

type scriptSegment struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// promptPayload carries the full story context for one segment's prompts.
type promptPayload struct {
	CurrentSegmentID   string                            `json:"current_segment_id"`
	CurrentSegmentText string                            `json:"current_segment_text"`
	FullScriptSegments []scriptSegment                   `json:"full_script_segments"`
	FullScriptText     string                            `json:"full_script_text"`
	PreviousPrompts    map[string]session.SegmentPrompts `json:"previous_image_prompts"`
	Instruction        string                            `json:"instruction"`
}

// GeneratePrompts crafts the two image prompts for one segment, passing the
// whole script and the prompts of earlier segments for continuity.
func (c *Client) GeneratePrompts(ctx context.Context, script map[string]string, segKey string, prior map[string]session.SegmentPrompts) (session.SegmentPrompts, error) {
	ordered := orderedSegments(script)
	texts := make([]string, len(ordered))
	for i, seg := range ordered {
		texts[i] = seg.Text
	}
	payload := promptPayload{
		CurrentSegmentID:   segKey,
		CurrentSegmentText: script[segKey],
		FullScriptSegments: ordered,
		FullScriptText:     strings.Join(texts, " "),
		PreviousPrompts:    prior,
		Instruction:        promptStyleInstruction,
	}
	user, err := json.Marshal(payload)
	if err != nil {
		return session.SegmentPrompts{}, fmt.Errorf("marshalling payload: %w", err)
	}

	content, err := c.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: promptSystemPrompt},
			{Role: "user", Content: string(user)},
		},
		Temperature:    0.45,
		MaxTokens:      1024,
		TopP:           1,
		ResponseFormat: jsonResponseFormat(),
	})
	if err != nil {
		return session.SegmentPrompts{}, err
	}

	var prompts session.SegmentPrompts
	if err := json.Unmarshal([]byte(content), &prompts); err != nil {
		return session.SegmentPrompts{}, fmt.Errorf("parse prompts: %w", err)
	}
	if prompts.Empty() {
		return session.SegmentPrompts{}, fmt.Errorf("model returned empty prompts")
	}
	return prompts, nil
}

var segmentDigits = regexp.MustCompile(`\d+`)

func orderedSegments(script map[string]string) []scriptSegment {
	segs := make([]scriptSegment, 0, len(script))
	for key, text := range script {
		segs = append(segs, scriptSegment{ID: key, Text: text})
	}
	index := func(key string) int {
		m := segmentDigits.FindString(key)
		if m == "" {
			return 0
		}
		n, _ := strconv.Atoi(m)
		return n
	}
	sort.SliceStable(segs, func(i, j int) bool {
		a, b := index(segs[i].ID), index(segs[j].ID)
		if a != b {
			return a < b
		}
		return segs[i].ID < segs[j].ID
	})
	return segs
}

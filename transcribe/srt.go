package transcribe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"story_video_automation/media"
)

var srtTimeline = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// ParseSRT converts SRT text into subtitle spans. Cue indexes are ignored;
// only the timing line and the caption text matter.
func ParseSRT(srt string) ([]media.SubtitleSpan, error) {
	var spans []media.SubtitleSpan

	blocks := strings.Split(strings.ReplaceAll(srt, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timingIdx := -1
		var m []string
		for i, line := range lines {
			if m = srtTimeline.FindStringSubmatch(line); m != nil {
				timingIdx = i
				break
			}
		}
		if timingIdx < 0 {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[timingIdx+1:], "\n"))
		if text == "" {
			continue
		}
		spans = append(spans, media.SubtitleSpan{
			Start: srtSeconds(m[1], m[2], m[3], m[4]),
			End:   srtSeconds(m[5], m[6], m[7], m[8]),
			Text:  text,
		})
	}

	if len(spans) == 0 {
		return nil, fmt.Errorf("no subtitle cues found")
	}
	return spans, nil
}

func srtSeconds(h, m, s, ms string) float64 {
	hours, _ := strconv.Atoi(h)
	mins, _ := strconv.Atoi(m)
	secs, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return float64(hours)*3600 + float64(mins)*60 + float64(secs) + float64(millis)/1000
}

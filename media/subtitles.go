package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// SubtitleSpan is one timed caption.
type SubtitleSpan struct {
	Start float64
	End   float64
	Text  string
}

// minSpanSeconds is the shortest a caption stays visible once clamping has
// collapsed its original timing.
const minSpanSeconds = 0.1

// clampSpans fits subtitle timings inside the video. Spans are clamped to
// just under the video end so the last caption never outlives the frame, and
// a span that collapses keeps a minimal visible duration.
func clampSpans(spans []SubtitleSpan, videoDur float64) []SubtitleSpan {
	limit := math.Max(videoDur-durationTolerance, 0)
	out := make([]SubtitleSpan, 0, len(spans))
	for _, span := range spans {
		start := math.Min(math.Max(span.Start, 0), limit)
		end := math.Min(math.Max(span.End, 0), limit)
		if end <= start {
			end = start + minSpanSeconds
		}
		out = append(out, SubtitleSpan{Start: start, End: end, Text: span.Text})
	}
	return out
}

// BurnSubtitles renders the spans into the video as styled captions. Styling
// scales with the frame: captions wrap within 90% of the width and the font
// size follows the frame height.
func (e *Editor) BurnSubtitles(videoPath string, spans []SubtitleSpan, outPath string) error {
	videoDur, err := e.VideoDuration(videoPath)
	if err != nil {
		return err
	}
	width, height, err := probeFrameSize(videoPath)
	if err != nil {
		return err
	}

	assPath := filepath.Join(filepath.Dir(outPath), "subtitles.ass")
	if err := writeASS(assPath, clampSpans(spans, videoDur), width, height, e.subtitleStyle(height)); err != nil {
		return err
	}

	err = runFFmpeg(
		"-i", videoPath,
		"-vf", fmt.Sprintf("ass=%s", escapeFilterPath(assPath)),
		"-c:v", e.codec(),
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	return nil
}

type subtitleStyle struct {
	Font         string
	FontSize     int
	MarginBottom int
	StrokeWidth  int
}

func (e *Editor) subtitleStyle(frameHeight int) subtitleStyle {
	font := e.Font
	if font == "" {
		font = "Segoe UI"
	}
	size := int(float64(frameHeight) * 0.06)
	if size < 20 {
		size = 20
	}
	margin := e.MarginBottom
	if margin <= 0 {
		margin = 40
	}
	stroke := e.StrokeWidth
	if stroke <= 0 {
		stroke = 2
	}
	return subtitleStyle{Font: font, FontSize: size, MarginBottom: margin, StrokeWidth: stroke}
}

// writeASS emits the caption track. Side margins of 5% each keep wrapped
// lines within 90% of the frame width.
func writeASS(path string, spans []SubtitleSpan, width, height int, style subtitleStyle) error {
	marginSide := width / 20

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", width)
	fmt.Fprintf(&b, "PlayResY: %d\n\n", height)

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H64000000,0,0,0,0,100,100,0,0,1,%d,0,2,%d,%d,%d,1\n\n",
		style.Font, style.FontSize, style.StrokeWidth, marginSide, marginSide, style.MarginBottom)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, span := range spans {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			assTime(span.Start), assTime(span.End), assText(span.Text))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write subtitle track: %w", err)
	}
	return nil
}

// assTime formats seconds as H:MM:SS.cc.
func assTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds * 100)
	cs := total % 100
	s := (total / 100) % 60
	m := (total / 6000) % 60
	h := total / 360000
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func assText(text string) string {
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", `\N`)
}

// escapeFilterPath makes a path safe inside an ffmpeg filter argument.
func escapeFilterPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, ":", `\:`)
	return p
}

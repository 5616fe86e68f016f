package transcribe

import (
	"math"
	"testing"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:02,500
Once upon a time

2
00:00:02,500 --> 00:00:05,120
a dog found a map
with two lines

3
00:01:01,250 --> 00:01:03,000
the end
`

func TestParseSRT(t *testing.T) {
	spans, err := ParseSRT(sampleSRT)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}

	if spans[0].Text != "Once upon a time" {
		t.Errorf("spans[0].Text = %q", spans[0].Text)
	}
	if math.Abs(spans[0].End-2.5) > 1e-9 {
		t.Errorf("spans[0].End = %v, want 2.5", spans[0].End)
	}
	if spans[1].Text != "a dog found a map\nwith two lines" {
		t.Errorf("spans[1].Text = %q", spans[1].Text)
	}
	if math.Abs(spans[1].End-5.12) > 1e-9 {
		t.Errorf("spans[1].End = %v, want 5.12", spans[1].End)
	}
	if math.Abs(spans[2].Start-61.25) > 1e-9 {
		t.Errorf("spans[2].Start = %v, want 61.25", spans[2].Start)
	}
}

func TestParseSRTWindowsLineEndings(t *testing.T) {
	srt := "1\r\n00:00:01,000 --> 00:00:02,000\r\nhello\r\n\r\n"
	spans, err := ParseSRT(srt)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "hello" {
		t.Errorf("spans = %+v", spans)
	}
}

func TestParseSRTDotMilliseparator(t *testing.T) {
	srt := "1\n00:00:01.000 --> 00:00:02.000\nhello\n"
	spans, err := ParseSRT(srt)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if spans[0].Start != 1 || spans[0].End != 2 {
		t.Errorf("span = %+v", spans[0])
	}
}

func TestParseSRTSkipsEmptyCues(t *testing.T) {
	srt := "1\n00:00:01,000 --> 00:00:02,000\n\n\n2\n00:00:02,000 --> 00:00:03,000\nkept\n"
	spans, err := ParseSRT(srt)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(spans) != 1 || spans[0].Text != "kept" {
		t.Errorf("spans = %+v", spans)
	}
}

func TestParseSRTNoCues(t *testing.T) {
	if _, err := ParseSRT("not a subtitle file"); err == nil {
		t.Error("ParseSRT succeeded on garbage")
	}
}

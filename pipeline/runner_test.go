package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"story_video_automation/media"
	"story_video_automation/session"
)

type fakeScripts struct {
	set session.ScriptSet
	err error
}

func (f *fakeScripts) GenerateScripts(ctx context.Context, idea string) (session.ScriptSet, error) {
	return f.set, f.err
}

type fakePrompts struct {
	err error
}

func (f *fakePrompts) GeneratePrompts(ctx context.Context, script map[string]string, segKey string, prior map[string]session.SegmentPrompts) (session.SegmentPrompts, error) {
	if f.err != nil {
		return session.SegmentPrompts{}, f.err
	}
	return session.SegmentPrompts{
		Image1: session.ImagePrompt{Prompt: "wide shot of " + segKey},
		Image2: session.ImagePrompt{Prompt: "close up of " + segKey},
	}, nil
}

type fakeNarrator struct {
	mu   sync.Mutex
	fail bool
}

func (f *fakeNarrator) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeNarrator) Synthesize(ctx context.Context, text, voice, outPath string) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("voice service unreachable")
	}
	return os.WriteFile(outPath, []byte("mp3"), 0644)
}

type fakeImages struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt, outPath string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return os.WriteFile(outPath, []byte("png"), 0644)
}

type fakeVideos struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *fakeVideos) GenerateVideo(ctx context.Context, imagePath, prompt string, seconds float64, outPath string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("space busy")
	}
	return 7, os.WriteFile(outPath, []byte("mp4"), 0644)
}

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(ctx context.Context, videoPath string) ([]media.SubtitleSpan, error) {
	return []media.SubtitleSpan{{Start: 0, End: 1.5, Text: "hello"}}, nil
}

type fakeEditor struct{}

func (fakeEditor) AudioDuration(path string) (float64, error) { return 10, nil }

func (fakeEditor) AdjustToDuration(videoPath string, target float64) (string, error) {
	return videoPath, nil
}

func (fakeEditor) CombineWithAudio(firstClip, secondClip, audioPath, outPath string) error {
	return os.WriteFile(outPath, []byte("mp4"), 0644)
}

func (fakeEditor) BuildSlideshow(imagePaths []string, audioPath, outPath string) error {
	return os.WriteFile(outPath, []byte("mp4"), 0644)
}

func (fakeEditor) Concatenate(clips []string, outPath string) error {
	return os.WriteFile(outPath, []byte("mp4"), 0644)
}

func (fakeEditor) BurnSubtitles(videoPath string, spans []media.SubtitleSpan, outPath string) error {
	return os.WriteFile(outPath, []byte("mp4"), 0644)
}

func threeSegmentSet() session.ScriptSet {
	return session.ScriptSet{
		"script1": {Valid: true, Segments: map[string]string{
			"segment1": "a dog finds a map",
			"segment2": "the dog follows it",
			"segment3": "treasure at last",
		}},
		"script2": {Valid: false},
	}
}

func newTestRunner(t *testing.T) (*Runner, *fakeNarrator, *fakeVideos) {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	narrator := &fakeNarrator{}
	videos := &fakeVideos{}
	return &Runner{
		Store:        store,
		Scripts:      &fakeScripts{set: threeSegmentSet()},
		Prompts:      &fakePrompts{},
		Narrator:     narrator,
		Images:       &fakeImages{},
		ImagesSafe:   &fakeImages{},
		Videos:       videos,
		Transcribe:   fakeTranscriber{},
		Editor:       fakeEditor{},
		DefaultVoice: "en-US-AriaNeural",
		RetryWait:    0,
		MaxRetries:   2,
	}, narrator, videos
}

func waitForTerminal(t *testing.T, r *Runner, id string) *session.Session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sess, err := r.Store.Load(id)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if sess.State == session.StateCompleted || sess.State == session.StateFailed {
			return sess
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session never reached a terminal state")
	return nil
}

func TestRunnerFullFlowImagesMode(t *testing.T) {
	r, _, _ := newTestRunner(t)

	sess, err := r.CreateSession("a brave dog goes hiking")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.State != session.StateCreated {
		t.Fatalf("state = %s, want created", sess.State)
	}

	set, err := r.GenerateScripts(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GenerateScripts: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("got %d scripts, want 2", len(set))
	}
	sess, _ = r.Store.Load(sess.ID)
	if sess.State != session.StateScriptsReady {
		t.Fatalf("state = %s, want scripts_ready", sess.State)
	}
	if len(sess.ScriptKeys) != 1 || sess.ScriptKeys[0] != "script1" {
		t.Fatalf("script keys = %v, want [script1]", sess.ScriptKeys)
	}

	if err := r.Start(sess.ID, "script1", "", session.ModeImages); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := waitForTerminal(t, r, sess.ID)
	if done.State != session.StateCompleted {
		t.Fatalf("state = %s (error %q), want completed", done.State, done.Error)
	}
	if done.Progress.TotalSegments != 3 || done.Progress.Completed != 3 {
		t.Errorf("progress = %+v, want 3/3", done.Progress)
	}
	if done.CurrentSegment != "" {
		t.Errorf("current segment = %q, want empty after completion", done.CurrentSegment)
	}
	if done.Artifacts["final"] != session.FinalFile || done.Artifacts["subtitled"] != session.SubtitledFile {
		t.Errorf("artifacts = %v", done.Artifacts)
	}
	for _, path := range []string{r.Store.FinalPath(sess.ID), r.Store.SubtitledPath(sess.ID)} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}
	if done.Voice != "en-US-AriaNeural" {
		t.Errorf("voice = %q, want the default", done.Voice)
	}
}

func TestRunnerVideosModeRetriesGeneration(t *testing.T) {
	r, _, videos := newTestRunner(t)
	videos.failures = 2 // first clip needs three attempts

	sess, _ := r.CreateSession("a cat learns to sail")
	if _, err := r.GenerateScripts(context.Background(), sess.ID); err != nil {
		t.Fatalf("GenerateScripts: %v", err)
	}
	if err := r.Start(sess.ID, "script1", "", session.ModeVideos); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := waitForTerminal(t, r, sess.ID)
	if done.State != session.StateCompleted {
		t.Fatalf("state = %s (error %q), want completed", done.State, done.Error)
	}
	// 3 segments x 2 clips, plus the 2 retried failures.
	if videos.calls != 8 {
		t.Errorf("video generation ran %d times, want 8", videos.calls)
	}
}

func TestRunnerSegmentFailureFailsSession(t *testing.T) {
	r, narrator, _ := newTestRunner(t)
	narrator.setFail(true)

	sess, _ := r.CreateSession("a story that will not narrate")
	if _, err := r.GenerateScripts(context.Background(), sess.ID); err != nil {
		t.Fatalf("GenerateScripts: %v", err)
	}
	if err := r.Start(sess.ID, "script1", "", session.ModeImages); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := waitForTerminal(t, r, sess.ID)
	if done.State != session.StateFailed {
		t.Fatalf("state = %s, want failed", done.State)
	}
	if !strings.Contains(done.Error, "segment1") || !strings.Contains(done.Error, "narration") {
		t.Errorf("error = %q, want segment and stage named", done.Error)
	}
}

func TestRunnerRerunResetsFailure(t *testing.T) {
	r, narrator, _ := newTestRunner(t)
	narrator.setFail(true)

	sess, _ := r.CreateSession("second chances")
	if _, err := r.GenerateScripts(context.Background(), sess.ID); err != nil {
		t.Fatalf("GenerateScripts: %v", err)
	}
	if err := r.Start(sess.ID, "script1", "", session.ModeImages); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if done := waitForTerminal(t, r, sess.ID); done.State != session.StateFailed {
		t.Fatalf("state = %s, want failed", done.State)
	}

	narrator.setFail(false)
	if err := r.Start(sess.ID, "script1", "", session.ModeImages); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	done := waitForTerminal(t, r, sess.ID)
	if done.State != session.StateCompleted {
		t.Fatalf("state = %s (error %q), want completed after re-run", done.State, done.Error)
	}
	if done.Error != "" {
		t.Errorf("error = %q, want cleared", done.Error)
	}
	if done.Progress.Completed != 3 {
		t.Errorf("progress = %+v, want 3 completed", done.Progress)
	}
}

func TestStartValidation(t *testing.T) {
	r, _, _ := newTestRunner(t)

	if err := r.Start("no-such-session", "script1", "", ""); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("unknown session: err = %v, want ErrNotFound", err)
	}

	sess, _ := r.CreateSession("validation checks")
	if err := r.Start(sess.ID, "script1", "", ""); !errors.Is(err, ErrScriptsNotReady) {
		t.Errorf("no scripts yet: err = %v, want ErrScriptsNotReady", err)
	}

	if _, err := r.GenerateScripts(context.Background(), sess.ID); err != nil {
		t.Fatalf("GenerateScripts: %v", err)
	}
	if err := r.Start(sess.ID, "script9", "", ""); !errors.Is(err, ErrInvalidScriptKey) {
		t.Errorf("missing key: err = %v, want ErrInvalidScriptKey", err)
	}
	if err := r.Start(sess.ID, "script2", "", ""); !errors.Is(err, ErrInvalidScriptKey) {
		t.Errorf("invalid script: err = %v, want ErrInvalidScriptKey", err)
	}
}

func TestCreateSessionRejectsEmptyIdea(t *testing.T) {
	r, _, _ := newTestRunner(t)
	if _, err := r.CreateSession("   "); !errors.Is(err, ErrEmptyIdea) {
		t.Errorf("err = %v, want ErrEmptyIdea", err)
	}
}

func TestGenerateScriptsAllInvalidFailsSession(t *testing.T) {
	r, _, _ := newTestRunner(t)
	r.Scripts = &fakeScripts{set: session.ScriptSet{
		"script1": {Valid: false},
		"script2": {Valid: false},
	}}

	sess, _ := r.CreateSession("nothing usable")
	if _, err := r.GenerateScripts(context.Background(), sess.ID); !errors.Is(err, ErrNoValidScripts) {
		t.Fatalf("err = %v, want ErrNoValidScripts", err)
	}
	sess, _ = r.Store.Load(sess.ID)
	if sess.State != session.StateFailed {
		t.Errorf("state = %s, want failed", sess.State)
	}
}

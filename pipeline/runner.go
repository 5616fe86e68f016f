package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"story_video_automation/session"
)

var (
	ErrEmptyIdea        = errors.New("idea must not be empty")
	ErrScriptsNotReady  = errors.New("scripts have not been generated for this session")
	ErrInvalidScriptKey = errors.New("selected script does not exist or is invalid")
	ErrNoValidScripts   = errors.New("no valid scripts were generated")
)

// Runner drives the whole idea-to-video flow: script generation, the
// per-segment pipeline, and final assembly. All state lives in the session
// store; the runner itself is stateless and safe for concurrent sessions.
type Runner struct {
	Store   *session.Store
	Catalog *session.Catalog

	Scripts    ScriptGenerator
	Prompts    PromptGenerator
	Narrator   Narrator
	Images     ImageGenerator // single backend used in videos mode
	ImagesSafe ImageGenerator // fallback chain used in images mode
	Videos     VideoGenerator
	Transcribe Transcriber
	Editor     MediaEditor

	DefaultVoice string
	RetryWait    time.Duration
	MaxRetries   int
}

// CreateSession allocates a new session for an idea.
func (r *Runner) CreateSession(idea string) (*session.Session, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}
	sess, err := r.Store.Create(idea)
	if err != nil {
		return nil, err
	}
	r.Catalog.Upsert(context.Background(), sess)
	log.Printf("📁 Created session %s", sess.ID)
	return sess, nil
}

// GenerateScripts produces the candidate scripts for a session and moves it
// to scripts_ready. At least one candidate must be valid; otherwise the
// session is failed.
func (r *Runner) GenerateScripts(ctx context.Context, id string) (session.ScriptSet, error) {
	sess, err := r.Store.Load(id)
	if err != nil {
		return nil, err
	}
	idea, err := r.Store.Idea(id)
	if err != nil {
		return nil, err
	}

	log.Printf("✍️ Generating scripts for session %s", id)
	set, err := r.Scripts.GenerateScripts(ctx, idea)
	if err != nil {
		r.fail(sess, fmt.Errorf("script generation: %w", err))
		return nil, err
	}
	valid := OrderKeys(set.ValidKeys())
	if len(valid) == 0 {
		r.fail(sess, ErrNoValidScripts)
		return nil, ErrNoValidScripts
	}
	if err := r.Store.SaveScripts(id, set); err != nil {
		r.fail(sess, err)
		return nil, err
	}

	sess.State = session.StateScriptsReady
	sess.ScriptKeys = valid
	sess.Error = ""
	r.persist(sess)
	log.Printf("✅ Session %s has %d valid script(s)", id, len(valid))
	return set, nil
}

// Start validates the selection, marks the session queued and launches the
// run in the background. Validation failures are reported synchronously;
// anything after queued is reported through the session snapshot.
func (r *Runner) Start(id, scriptKey, voice, mode string) error {
	sess, err := r.Store.Load(id)
	if err != nil {
		return err
	}
	set, err := r.Store.LoadScripts(id)
	if err != nil {
		return ErrScriptsNotReady
	}
	script, ok := set[scriptKey]
	if !ok || !script.Valid {
		return ErrInvalidScriptKey
	}
	if voice == "" {
		voice = r.DefaultVoice
	}
	if mode != session.ModeImages {
		mode = session.ModeVideos
	}

	sess.State = session.StateQueued
	sess.SelectedScript = scriptKey
	sess.Voice = voice
	sess.Mode = mode
	sess.Error = ""
	r.persist(sess)

	go r.run(id, scriptKey, voice, mode)
	return nil
}

// run executes the full pipeline for one session. It owns the session's
// status from here on; every transition is snapshotted before work continues.
func (r *Runner) run(id, scriptKey, voice, mode string) {
	ctx := context.Background()

	sess, err := r.Store.Load(id)
	if err != nil {
		log.Printf("❌ Session %s vanished before run: %v", id, err)
		return
	}
	set, err := r.Store.LoadScripts(id)
	if err != nil {
		r.fail(sess, err)
		return
	}
	script := set[scriptKey]
	segKeys := OrderKeys(keysOf(script.Segments))

	// A re-run starts from a clean slate: progress, error and artifacts from
	// any previous run are discarded.
	sess.State = session.StateRunning
	sess.SelectedScript = scriptKey
	sess.Voice = voice
	sess.Mode = mode
	sess.Progress = session.Progress{TotalSegments: len(segKeys), Completed: 0}
	sess.CurrentSegment = ""
	sess.Error = ""
	sess.Artifacts = map[string]string{}
	r.persist(sess)
	log.Printf("🚀 Running session %s: script=%s voice=%s mode=%s segments=%d", id, scriptKey, voice, mode, len(segKeys))

	clips := make([]string, 0, len(segKeys))
	for i, segKey := range segKeys {
		sess.CurrentSegment = segKey
		r.persist(sess)

		clip, err := r.processSegment(ctx, sess, script.Segments, scriptKey, segKey, voice, mode)
		if err != nil {
			r.fail(sess, fmt.Errorf("segment %s: %w", segKey, err))
			return
		}
		clips = append(clips, clip)

		sess.Progress.Completed = i + 1
		r.persist(sess)
		log.Printf("✅ Session %s: segment %s done (%d/%d)", id, segKey, i+1, len(segKeys))
	}

	sess.CurrentSegment = ""
	r.persist(sess)

	finalPath := r.Store.FinalPath(id)
	log.Printf("🎬 Session %s: assembling %d clips", id, len(clips))
	if err := r.Editor.Concatenate(clips, finalPath); err != nil {
		r.fail(sess, fmt.Errorf("assemble final video: %w", err))
		return
	}
	sess.Artifacts["final"] = session.FinalFile
	r.persist(sess)

	spans, err := r.Transcribe.Transcribe(ctx, finalPath)
	if err != nil {
		r.fail(sess, fmt.Errorf("transcription: %w", err))
		return
	}
	subtitledPath := r.Store.SubtitledPath(id)
	if err := r.Editor.BurnSubtitles(finalPath, spans, subtitledPath); err != nil {
		r.fail(sess, fmt.Errorf("burn subtitles: %w", err))
		return
	}
	sess.Artifacts["subtitled"] = session.SubtitledFile

	sess.State = session.StateCompleted
	r.persist(sess)
	log.Printf("🎉 Session %s completed", id)
}

func (r *Runner) fail(sess *session.Session, err error) {
	log.Printf("❌ Session %s failed: %v", sess.ID, err)
	sess.State = session.StateFailed
	sess.Error = err.Error()
	r.persist(sess)
}

// persist snapshots the session to disk and mirrors it into the catalog.
func (r *Runner) persist(sess *session.Session) {
	r.Store.SaveQuiet(sess)
	r.Catalog.Upsert(context.Background(), sess)
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

package session

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known filenames inside a session directory.
const (
	StatusFile    = "status.json"
	IdeaFile      = "idea.txt"
	ScriptsFile   = "scripts.json"
	SegmentsDir   = "segments"
	AudioFile     = "audio.mp3"
	FinalFile     = "final_output.mp4"
	SubtitledFile = "final_output_subtitled.mp4"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-zA-Z0-9\-_. ]+`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	ErrNotFound  = fmt.Errorf("session not found")
	maxSlugChars = 40
)

// Slugify reduces idea text to a filesystem-safe slug. An idea with no
// usable characters falls back to a short random id.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(slugStrip.ReplaceAllString(text, "")))
	slug = slugSpaces.ReplaceAllString(slug, "-")
	if slug == "" {
		slug = uuid.NewString()[:8]
	}
	if len(slug) > maxSlugChars {
		slug = slug[:maxSlugChars]
	}
	return slug
}

// Store persists sessions as one directory per session under Root. The
// status snapshot is written whole on every transition; only the run that
// owns a session writes its status (writer wins, no locking needed).
type Store struct {
	Root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create sessions root: %w", err)
	}
	return &Store{Root: root}, nil
}

// Create allocates a new session directory and writes the initial snapshot.
func (s *Store) Create(idea string) (*Session, error) {
	id := time.Now().Format("20060102-150405") + "-" + Slugify(idea)
	dir := s.Dir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IdeaFile), []byte(idea), 0644); err != nil {
		return nil, fmt.Errorf("write idea: %w", err)
	}

	now := time.Now()
	sess := &Session{
		ID:        id,
		Idea:      idea,
		State:     StateCreated,
		Artifacts: map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) Dir(id string) string {
	return filepath.Join(s.Root, id)
}

func (s *Store) Exists(id string) bool {
	info, err := os.Stat(s.Dir(id))
	return err == nil && info.IsDir()
}

// List returns all session ids, newest first. The timestamp prefix of the id
// makes reverse-lexical order chronological.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Load reads the latest status snapshot for a session.
func (s *Store) Load(id string) (*Session, error) {
	if !s.Exists(id) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(id), StatusFile))
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	if sess.Artifacts == nil {
		sess.Artifacts = map[string]string{}
	}
	return &sess, nil
}

// Save writes the full status snapshot.
func (s *Store) Save(sess *Session) error {
	sess.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(sess.ID), StatusFile), data, 0644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// SaveQuiet writes the snapshot and swallows failures. Observability must
// never abort generation.
func (s *Store) SaveQuiet(sess *Session) {
	if err := s.Save(sess); err != nil {
		log.Printf("Warning: failed to persist status for %s: %v", sess.ID, err)
	}
}

func (s *Store) Idea(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), IdeaFile))
	if err != nil {
		return "", fmt.Errorf("read idea: %w", err)
	}
	return string(data), nil
}

// SaveScripts records the candidate script set for a session.
func (s *Store) SaveScripts(id string, set ScriptSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scripts: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(id), ScriptsFile), data, 0644); err != nil {
		return fmt.Errorf("write scripts: %w", err)
	}
	return nil
}

// LoadScripts returns the candidate script set, or an error if scripts were
// never generated for this session.
func (s *Store) LoadScripts(id string) (ScriptSet, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), ScriptsFile))
	if err != nil {
		return nil, fmt.Errorf("read scripts: %w", err)
	}
	var set ScriptSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode scripts: %w", err)
	}
	return set, nil
}

// SegmentDir ensures and returns the working directory for one segment.
func (s *Store) SegmentDir(id, segKey string) (string, error) {
	dir := filepath.Join(s.Dir(id), SegmentsDir, segKey)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create segment dir: %w", err)
	}
	return dir, nil
}

func (s *Store) FinalPath(id string) string {
	return filepath.Join(s.Dir(id), FinalFile)
}

func (s *Store) SubtitledPath(id string) string {
	return filepath.Join(s.Dir(id), SubtitledFile)
}

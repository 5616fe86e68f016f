package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"story_video_automation/config"
	"story_video_automation/pipeline"
	"story_video_automation/session"
	"story_video_automation/tts"
)

type server struct {
	cfg     *config.Config
	store   *session.Store
	catalog *session.Catalog
	runner  *pipeline.Runner
	voices  tts.Catalog
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type createSessionRequest struct {
	Idea string `json:"idea"`
}

func (s *server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := s.runner.CreateSession(req.Idea)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID})
}

type generateScriptsRequest struct {
	SessionID string `json:"session_id"`
	Idea      string `json:"idea"`
}

// generateScripts produces the candidate scripts for a session. Passing only
// an idea creates the session and generates scripts in one call.
func (s *server) generateScripts(c *gin.Context) {
	var req generateScriptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		sess, err := s.runner.CreateSession(req.Idea)
		if err != nil {
			if errors.Is(err, pipeline.ErrEmptyIdea) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "provide 'session_id' or 'idea'"})
				return
			}
			s.renderError(c, err)
			return
		}
		id = sess.ID
	}

	set, err := s.runner.GenerateScripts(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":   id,
		"scripts":      set,
		"ordered_keys": pipeline.OrderKeys(set.ValidKeys()),
	})
}

type runSessionRequest struct {
	ScriptKey string `json:"script_key"`
	Voice     string `json:"voice"`
	Mode      string `json:"mode"`
}

func (s *server) runSession(c *gin.Context) {
	id := c.Param("id")
	var req runSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.ScriptKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'script_key' is required"})
		return
	}

	if err := s.runner.Start(id, req.ScriptKey, req.Voice, req.Mode); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"status_url": "/api/sessions/" + id,
		"message":    "Generation started",
	})
}

// listSessions prefers the catalog when MongoDB is connected and falls back
// to the directory listing.
func (s *server) listSessions(c *gin.Context) {
	if ids, err := s.catalog.ListIDs(c.Request.Context()); err == nil && len(ids) > 0 {
		c.JSON(http.StatusOK, gin.H{"sessions": ids})
		return
	} else if err != nil {
		log.Printf("⚠️ Session catalog listing failed, using directory listing: %v", err)
	}

	ids, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

type segmentFiles struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
	Audios []string `json:"audios"`
}

type sessionStatus struct {
	*session.Session
	SegmentsInfo map[string]segmentFiles `json:"segments_info"`
	ArtifactURLs map[string]string       `json:"artifacts_urls"`
}

func (s *server) sessionStatus(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.store.Load(id)
	if err != nil {
		s.renderError(c, err)
		return
	}

	// Older sessions may predate artifact bookkeeping; detect the outputs on
	// disk so the response stays useful.
	if _, err := os.Stat(s.store.FinalPath(id)); err == nil && sess.Artifacts["final"] == "" {
		sess.Artifacts["final"] = session.FinalFile
	}
	if _, err := os.Stat(s.store.SubtitledPath(id)); err == nil && sess.Artifacts["subtitled"] == "" {
		sess.Artifacts["subtitled"] = session.SubtitledFile
	}

	base := requestBase(c)
	urls := map[string]string{}
	for _, name := range []string{"final", "subtitled"} {
		if file := sess.Artifacts[name]; file != "" {
			urls[name] = base + "/api/sessions/" + id + "/artifact/" + file
		}
	}

	c.JSON(http.StatusOK, sessionStatus{
		Session:      sess,
		SegmentsInfo: s.segmentsInfo(id, base),
		ArtifactURLs: urls,
	})
}

// segmentsInfo inventories every segment working directory, grouped by media
// type, as downloadable artifact URLs.
func (s *server) segmentsInfo(id, base string) map[string]segmentFiles {
	info := map[string]segmentFiles{}
	segmentsRoot := filepath.Join(s.store.Dir(id), session.SegmentsDir)
	entries, err := os.ReadDir(segmentsRoot)
	if err != nil {
		return info
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		segKey := entry.Name()
		files, err := os.ReadDir(filepath.Join(segmentsRoot, segKey))
		if err != nil {
			continue
		}
		var seg segmentFiles
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			url := base + "/api/sessions/" + id + "/artifact/" + segKey + "/" + file.Name()
			switch strings.ToLower(filepath.Ext(file.Name())) {
			case ".png", ".jpg", ".jpeg":
				seg.Images = append(seg.Images, url)
			case ".mp4":
				seg.Videos = append(seg.Videos, url)
			case ".mp3", ".wav", ".m4a":
				seg.Audios = append(seg.Audios, url)
			}
		}
		info[segKey] = seg
	}
	return info
}

func (s *server) downloadVideo(c *gin.Context) {
	id := c.Param("id")
	if !s.store.Exists(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var path string
	switch kind := c.Param("kind"); kind {
	case "final":
		path = s.store.FinalPath(id)
	case "subtitled":
		path = s.store.SubtitledPath(id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'final' or 'subtitled'"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not available yet"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// downloadArtifact serves any file from a session directory. The requested
// path is resolved relative to the session dir and must stay inside it.
func (s *server) downloadArtifact(c *gin.Context) {
	id := c.Param("id")
	if !s.store.Exists(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	relpath := strings.TrimPrefix(c.Param("relpath"), "/")
	if relpath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	// Artifact paths in the status response point at segment files, so
	// resolve inside segments/ first and fall back to the session root for
	// final outputs.
	sessionDir := s.store.Dir(id)
	candidates := []string{
		filepath.Join(sessionDir, session.SegmentsDir, relpath),
		filepath.Join(sessionDir, relpath),
	}

	for _, candidate := range candidates {
		resolved := filepath.Clean(candidate)
		rel, err := filepath.Rel(sessionDir, resolved)
		if err != nil || strings.HasPrefix(rel, "..") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
			return
		}
		if info, err := os.Stat(resolved); err == nil && !info.IsDir() {
			c.FileAttachment(resolved, filepath.Base(resolved))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
}

func (s *server) listVoices(c *gin.Context) {
	if c.Query("flat") == "true" || c.Query("flat") == "1" {
		c.JSON(http.StatusOK, gin.H{"voices": s.voices.Flatten()})
		return
	}
	c.JSON(http.StatusOK, s.voices)
}

func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// renderError maps pipeline errors onto HTTP statuses.
func (s *server) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, pipeline.ErrEmptyIdea),
		errors.Is(err, pipeline.ErrScriptsNotReady),
		errors.Is(err, pipeline.ErrInvalidScriptKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

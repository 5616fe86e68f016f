package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"story_video_automation/config"
	"story_video_automation/pipeline"
	"story_video_automation/session"
	"story_video_automation/tts"
)

type stubScripts struct{}

func (stubScripts) GenerateScripts(ctx context.Context, idea string) (session.ScriptSet, error) {
	return session.ScriptSet{
		"script1": {Valid: true, Segments: map[string]string{"segment1": "a beginning"}},
		"script2": {Valid: false},
	}, nil
}

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	srv := &server{
		cfg:   &config.Config{},
		store: store,
		runner: &pipeline.Runner{
			Store:        store,
			Scripts:      stubScripts{},
			DefaultVoice: "en-US-AriaNeural",
		},
		voices: tts.Voices,
	}
	return srv, srv.routes()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSessionEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/sessions", `{"idea":"a fox in the snow"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasSuffix(resp["session_id"], "a-fox-in-the-snow") {
		t.Errorf("session_id = %q", resp["session_id"])
	}

	if w := doJSON(t, r, http.MethodPost, "/api/sessions", `{"idea":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty idea: status = %d", w.Code)
	}
}

func TestGenerateScriptsEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	sess, _ := srv.runner.CreateSession("scripted idea")

	w := doJSON(t, r, http.MethodPost, "/api/scripts", `{"session_id":"`+sess.ID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		SessionID   string   `json:"session_id"`
		OrderedKeys []string `json:"ordered_keys"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.SessionID != sess.ID {
		t.Errorf("session_id = %q", resp.SessionID)
	}
	if len(resp.OrderedKeys) != 1 || resp.OrderedKeys[0] != "script1" {
		t.Errorf("ordered_keys = %v", resp.OrderedKeys)
	}

	// Idea-only form creates the session on the fly.
	w = doJSON(t, r, http.MethodPost, "/api/scripts", `{"idea":"one shot"}`)
	if w.Code != http.StatusOK {
		t.Errorf("idea-only: status = %d, body %s", w.Code, w.Body)
	}

	if w := doJSON(t, r, http.MethodPost, "/api/scripts", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("no session_id or idea: status = %d", w.Code)
	}
}

func TestListSessionsEndpoint(t *testing.T) {
	srv, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Sessions []string `json:"sessions"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Sessions) != 0 {
		t.Errorf("sessions = %v, want empty", resp.Sessions)
	}

	sess, _ := srv.runner.CreateSession("listed idea")
	w = doJSON(t, r, http.MethodGet, "/api/sessions", "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Sessions) != 1 || resp.Sessions[0] != sess.ID {
		t.Errorf("sessions = %v, want [%s]", resp.Sessions, sess.ID)
	}
}

func TestSessionStatusEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	sess, _ := srv.runner.CreateSession("status check")

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		SessionID string            `json:"session_id"`
		State     string            `json:"state"`
		URLs      map[string]string `json:"artifacts_urls"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.SessionID != sess.ID || resp.State != "created" {
		t.Errorf("resp = %+v", resp)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/sessions/20240101-000000-missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing session: status = %d", w.Code)
	}
}

func TestRunEndpointValidation(t *testing.T) {
	srv, r := newTestServer(t)
	sess, _ := srv.runner.CreateSession("run checks")

	if w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.ID+"/run", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("no script_key: status = %d", w.Code)
	}
	// Scripts not generated yet.
	if w := doJSON(t, r, http.MethodPost, "/api/sessions/"+sess.ID+"/run", `{"script_key":"script1"}`); w.Code != http.StatusBadRequest {
		t.Errorf("scripts not ready: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/sessions/20240101-000000-none/run", `{"script_key":"script1"}`); w.Code != http.StatusNotFound {
		t.Errorf("missing session: status = %d", w.Code)
	}
}

func TestArtifactEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	sess, _ := srv.runner.CreateSession("artifacts")

	segDir, _ := srv.store.SegmentDir(sess.ID, "segment1")
	os.WriteFile(filepath.Join(segDir, "image1.png"), []byte("png"), 0644)

	w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/artifact/segment1/image1.png", "")
	if w.Code != http.StatusOK {
		t.Errorf("segment artifact: status = %d", w.Code)
	}

	// Final outputs resolve against the session root.
	os.WriteFile(srv.store.FinalPath(sess.ID), []byte("mp4"), 0644)
	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/artifact/final_output.mp4", "")
	if w.Code != http.StatusOK {
		t.Errorf("final artifact: status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/artifact/../../../etc/passwd", "")
	if w.Code == http.StatusOK {
		t.Errorf("path traversal served: status = %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/artifact/segment1/missing.png", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing artifact: status = %d", w.Code)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	srv, r := newTestServer(t)
	sess, _ := srv.runner.CreateSession("downloads")

	if w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/download/other", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad kind: status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/download/final", ""); w.Code != http.StatusNotFound {
		t.Errorf("not yet rendered: status = %d", w.Code)
	}

	os.WriteFile(srv.store.FinalPath(sess.ID), []byte("mp4"), 0644)
	if w := doJSON(t, r, http.MethodGet, "/api/sessions/"+sess.ID+"/download/final", ""); w.Code != http.StatusOK {
		t.Errorf("final: status = %d", w.Code)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/voices?flat=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Voices []tts.Voice `json:"voices"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Voices) == 0 {
		t.Error("no voices returned")
	}

	w = doJSON(t, r, http.MethodGet, "/api/voices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("nested form: status = %d", w.Code)
	}
}

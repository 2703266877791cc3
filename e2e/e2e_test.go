package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/deck"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type stack struct {
	store  *store.Store
	clf    *classifier.MockClassifier
	deck   *deck.Deck
	app    *app.App
	ts     *httptest.Server
	client *http.Client
}

func newStack(t *testing.T, pluginDir string) *stack {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	dk, err := deck.New(deck.NewClockOutput(3 * time.Minute))
	if err != nil {
		t.Fatalf("deck.New() error = %v", err)
	}

	plugins := plugin.NewManager(pluginDir)
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	clf := classifier.NewMockClassifier()
	a, err := app.New(app.Config{
		Source:     capture.NewMockSource(48, 64),
		Classifier: clf,
		Deck:       dk,
		Table:      gesture.DefaultTable(),
		Events:     s.Events(),
		Hooks:      s.Hooks(),
		Plugins:    plugin.NewHost(plugins, plugin.NewExecutor(2*time.Second)),
		Settings:   s.Settings(),
		FPS:        50,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(a.Stop)

	ts := httptest.NewServer(server.New(server.Config{
		Store:   s,
		App:     a,
		Plugins: plugins,
	}))
	t.Cleanup(ts.Close)

	return &stack{store: s, clf: clf, deck: dk, app: a, ts: ts, client: ts.Client()}
}

func (s *stack) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, s.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func predict(label string, confidence float64) classifier.Prediction {
	return classifier.Prediction{Label: label, Confidence: confidence}
}

func TestE2E_GesturesDriveTransport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st := newStack(t, filepath.Join(t.TempDir(), "plugins"))

	st.clf.SetPredictions(predict("fist-hand", 0.9), predict("five-hand", 0.1))
	waitFor(t, "playing", func() bool { return st.deck.State() == deck.Playing })

	st.clf.SetPredictions(predict("five-hand", 0.8), predict("fist-hand", 0.2))
	waitFor(t, "paused", func() bool { return st.deck.State() == deck.Paused })

	st.clf.SetPredictions(predict("checkmark-hand", 0.7))
	waitFor(t, "stopped", func() bool { return st.deck.State() == deck.Stopped })

	t.Run("StatusReflectsGesture", func(t *testing.T) {
		resp := st.do(t, http.MethodGet, "/api/status", "")
		var status app.Status
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Symbol != gesture.Checkmark {
			t.Errorf("symbol = %v, want checkmark", status.Symbol)
		}
		if status.Transport != deck.Stopped {
			t.Errorf("transport = %v, want stopped", status.Transport)
		}
	})

	t.Run("EventsRecorded", func(t *testing.T) {
		waitFor(t, "three events", func() bool {
			n, err := st.store.Events().Count()
			return err == nil && n >= 3
		})

		resp := st.do(t, http.MethodGet, "/api/events?limit=10", "")
		var body struct {
			Events []struct {
				Symbol  string `json:"symbol"`
				Command string `json:"command"`
			} `json:"events"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode events: %v", err)
		}
		if len(body.Events) < 3 {
			t.Fatalf("events = %d, want >= 3", len(body.Events))
		}
		if body.Events[0].Symbol != "checkmark" || body.Events[0].Command != "stop" {
			t.Errorf("newest event = %+v", body.Events[0])
		}
	})
}

func TestE2E_RebindLabel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st := newStack(t, filepath.Join(t.TempDir(), "plugins"))

	resp := st.do(t, http.MethodPut, "/api/bindings/thumbs-up", `{"symbol":"fist"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT binding status = %d", resp.StatusCode)
	}

	st.clf.SetPredictions(predict("thumbs-up", 0.95))
	waitFor(t, "playing via new label", func() bool { return st.deck.State() == deck.Playing })

	b, err := st.store.Bindings().Get("thumbs-up")
	if err != nil || b.Symbol != "fist" {
		t.Errorf("stored binding = %+v, %v", b, err)
	}
}

func TestE2E_ManualTransportAndRecognitionToggle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	st := newStack(t, filepath.Join(t.TempDir(), "plugins"))

	resp := st.do(t, http.MethodPut, "/api/recognition", `{"enabled": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT recognition status = %d", resp.StatusCode)
	}
	if st.app.IsEnabled() {
		t.Fatal("recognition should be disabled")
	}
	if st.store.Settings().Bool(store.SettingEnabled, true) {
		t.Error("disabled state should be persisted")
	}
	// Let any classification submitted before the toggle drain.
	time.Sleep(50 * time.Millisecond)

	resp = st.do(t, http.MethodPost, "/api/transport/play", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST play status = %d", resp.StatusCode)
	}
	if st.deck.State() != deck.Playing {
		t.Errorf("state = %v, want playing", st.deck.State())
	}

	// Recognition is off, so a pause gesture changes nothing.
	st.clf.SetPredictions(predict("five-hand", 0.9))
	time.Sleep(100 * time.Millisecond)
	if st.deck.State() != deck.Playing {
		t.Errorf("state = %v after disabled gesture, want playing", st.deck.State())
	}
}

func TestE2E_HookRunsPlugin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	pluginDir := t.TempDir()
	outFile := filepath.Join(t.TempDir(), "fired.json")

	dir := filepath.Join(pluginDir, "recorder")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := "#!/bin/sh\ncat > " + outFile + "\necho '{\"success\": true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","actions":["record"]}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	st := newStack(t, pluginDir)

	resp := st.do(t, http.MethodPost, "/api/hooks",
		`{"symbol":"fist","plugin_name":"recorder","action_name":"record","config":{"note":"hi"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST hook status = %d", resp.StatusCode)
	}

	st.clf.SetPredictions(predict("fist-hand", 0.9))

	var req plugin.Request
	waitFor(t, "plugin to run", func() bool {
		data, err := os.ReadFile(outFile)
		return err == nil && json.Unmarshal(data, &req) == nil
	})

	if req.Action != "record" || req.Symbol != "fist" || req.Command != "play" {
		t.Errorf("plugin request = %+v", req)
	}
	if req.Label != "fist-hand" {
		t.Errorf("label = %q, want fist-hand", req.Label)
	}
	if string(req.Config) != `{"note":"hi"}` {
		t.Errorf("config = %s", req.Config)
	}
}

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"homeworksync/cmd/internal/blob"
)

// fakeContentsAPI keeps files in memory and mimics the contents API semantics
// homeworksync relies on: sha checks on update, 422 for a missing sha.
type fakeContentsAPI struct {
	t     *testing.T
	mu    sync.Mutex
	files map[string]string
	shas  map[string]string
	rev   int
}

func (f *fakeContentsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}
	path, ok := strings.CutPrefix(r.URL.Path, "/repos/owner/repo/contents/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("ref") != "main" {
			f.t.Errorf("missing ref query")
		}
		content, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		enc := base64.StdEncoding.EncodeToString([]byte(content))
		// Wrap like the real API.
		var wrapped strings.Builder
		for len(enc) > 60 {
			wrapped.WriteString(enc[:60] + "\n")
			enc = enc[60:]
		}
		wrapped.WriteString(enc)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type": "file", "encoding": "base64", "content": wrapped.String(), "sha": f.shas[path],
		})

	case http.MethodPut:
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cur, exists := f.shas[path]
		switch {
		case exists && req.SHA == "":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"\"sha\" wasn't supplied."}`))
			return
		case exists && req.SHA != cur, !exists && req.SHA != "":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"does not match"}`))
			return
		}
		if req.Branch != "main" || req.Message == "" {
			f.t.Errorf("put without branch or message: %+v", req)
		}
		raw, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rev++
		f.files[path] = string(raw)
		f.shas[path] = fmt.Sprintf("sha-%d", f.rev)

		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": f.shas[path]}})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*ContentsStore, *fakeContentsAPI) {
	t.Helper()
	return newTestStoreWithToken(t, "secret")
}

func newTestStoreWithToken(t *testing.T, tok string) (*ContentsStore, *fakeContentsAPI) {
	t.Helper()

	api := &fakeContentsAPI{t: t, files: map[string]string{}, shas: map[string]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	st, err := NewContentsStore(Config{
		Token:  tok,
		Repo:   "owner/repo",
		APIURL: srv.URL,
	}, srv.Client(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewContentsStore: %v", err)
	}
	return st, api
}

func TestContentsStore_RoundTrip(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Get(ctx, "homework_report.csv"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	long := strings.Repeat("id,status\n1,done\n", 20)
	v1, err := st.Put(ctx, "homework_report.csv", []byte(long), "", "create")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	obj, err := st.Get(ctx, "homework_report.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(obj.Content) != long || obj.Version != v1 {
		t.Fatalf("unexpected object version=%q", obj.Version)
	}

	if _, err := st.Put(ctx, "homework_report.csv", []byte("x"), "", "no sha"); !errors.Is(err, blob.ErrConflict) {
		t.Fatalf("missing sha must conflict, got %v", err)
	}
	v2, err := st.Put(ctx, "homework_report.csv", []byte("y"), v1, "update")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := st.Put(ctx, "homework_report.csv", []byte("z"), v1, "stale"); !errors.Is(err, blob.ErrConflict) {
		t.Fatalf("stale sha must conflict, got %v", err)
	}
	if v2 == v1 {
		t.Fatalf("sha should change")
	}
}

func TestContentsStore_NestedPath(t *testing.T) {
	t.Parallel()

	st, api := newTestStore(t)
	ctx := context.Background()

	v, err := st.Put(ctx, "reports/2024/homework_report.html", []byte("<p>ok</p>"), "", "create")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	api.mu.Lock()
	_, stored := api.files["reports/2024/homework_report.html"]
	api.mu.Unlock()
	if !stored {
		t.Fatalf("nested path not stored as-is")
	}

	obj, err := st.Get(ctx, "reports/2024/homework_report.html")
	if err != nil || obj.Version != v || string(obj.Content) != "<p>ok</p>" {
		t.Fatalf("Get=%+v err=%v", obj, err)
	}
}

func TestContentsStore_URL(t *testing.T) {
	t.Parallel()

	st, _ := newTestStore(t)
	if got := st.URL("homework_report.html"); got != "https://raw.githubusercontent.com/owner/repo/main/homework_report.html" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestContentsStore_BadCredentials(t *testing.T) {
	t.Parallel()

	st, _ := newTestStoreWithToken(t, "wrong")

	_, err := st.Get(context.Background(), "a.csv")
	if err == nil || errors.Is(err, blob.ErrNotFound) || !strings.Contains(err.Error(), "Bad credentials") {
		t.Fatalf("unexpected err %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "ok", cfg: Config{Token: "t", Repo: "o/r"}, ok: true},
		{name: "no token", cfg: Config{Repo: "o/r"}},
		{name: "bad repo", cfg: Config{Token: "t", Repo: "o"}},
		{name: "nested repo", cfg: Config{Token: "t", Repo: "o/r/x"}},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("%s: err=%v", tc.name, err)
		}
		if err != nil && !errors.Is(err, ErrConfig) {
			t.Fatalf("%s: expected ErrConfig, got %v", tc.name, err)
		}
	}
}

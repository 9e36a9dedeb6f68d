package session

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakePortal imitates the portal endpoints the session package talks to.
type fakePortal struct {
	mu       sync.Mutex
	valid    map[string]bool
	pages    map[string]string // path -> cookie issued by that page
	username string
	password string
	loginID  string
	loginRaw string // overrides the login JSON body when set

	listCalls  int
	loginCalls int
}

func newFakePortal(t *testing.T) (*fakePortal, *httptest.Server) {
	t.Helper()
	fp := &fakePortal{valid: map[string]bool{}, pages: map[string]string{}}
	srv := httptest.NewServer(fp)
	t.Cleanup(srv.Close)
	return fp, srv
}

func (f *fakePortal) accept(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.valid[id] = true
	}
}

func (f *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/obsapi/homework/getHomeworkList":
		f.listCalls++
		c, err := r.Cookie("PHPSESSID")
		w.Header().Set("Content-Type", "application/json")
		if err != nil || !f.valid[c.Value] {
			_, _ = io.WriteString(w, `{"success":false,"error":"Login required"}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)

	case r.URL.Path == "/require/class/login.php" && r.Method == http.MethodPost:
		f.loginCalls++
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if f.loginRaw != "" {
			_, _ = io.WriteString(w, f.loginRaw)
			return
		}
		if r.PostForm.Get("request") != "login" || r.PostForm.Get("loginAs") != "standard" ||
			r.PostForm.Get("username") != f.username || r.PostForm.Get("password") != f.password {
			_, _ = io.WriteString(w, `{"success":false,"error":"invalid credentials"}`)
			return
		}
		if _, err := r.Cookie("PHPSESSID"); err != nil {
			_, _ = io.WriteString(w, `{"success":false,"error":"no landing cookie"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: f.loginID, Path: "/"})
		_, _ = io.WriteString(w, `{"status":"success"}`)

	default:
		if id, ok := f.pages[r.URL.Path]; ok && id != "" {
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: id, Path: "/"})
		}
		_, _ = io.WriteString(w, "<html></html>")
	}
}

func testConfig(base string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = base
	cfg.ValidateTimeout = 2 * time.Second
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func (f *fakePortal) counts() (list, login int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.loginCalls
}

package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type storedEntry struct {
	ID              string    `json:"id"`
	EncryptedText   string    `json:"encryptedText"`
	EncryptedVector string    `json:"encryptedVector"`
	CreatedAt       time.Time `json:"createdAt"`
}

// fakeServer mimics the REST API closely enough for the client: one key per
// user, bearer tokens "tok-<user>", history newest first.
type fakeServer struct {
	mu        sync.Mutex
	passwords map[string]string
	keys      map[string][]byte
	entries   map[string][]storedEntry
	revoked   map[string]bool
	archive   []byte
	srv       *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		passwords: map[string]string{},
		keys:      map[string][]byte{},
		entries:   map[string][]storedEntry{},
		revoked:   map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	mux.HandleFunc("POST /api/signup", f.signup)
	mux.HandleFunc("POST /api/login", f.login)
	mux.HandleFunc("GET /api/profile", f.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		writeJSON(w, http.StatusOK, map[string]string{"username": user})
	}))
	mux.HandleFunc("POST /api/journal", f.authed(f.postEntry))
	mux.HandleFunc("GET /api/history", f.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := append([]storedEntry{}, f.entries[user]...)
		writeJSON(w, http.StatusOK, map[string]any{"entries": list})
	}))
	mux.HandleFunc("GET /api/history/export", f.authed(func(w http.ResponseWriter, r *http.Request, user string) {
		f.mu.Lock()
		archive := f.archive
		f.mu.Unlock()
		if archive == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "not available"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": f.srv.URL + "/archive/" + user, "expiresAt": time.Now().Add(15 * time.Minute)})
	}))
	mux.HandleFunc("GET /archive/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_, _ = w.Write(f.archive)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) URL() string { return f.srv.URL }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type creds struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f *fakeServer) signup(w http.ResponseWriter, r *http.Request) {
	var c creds
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Username == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.passwords[c.Username]; ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username already exists"})
		return
	}
	f.passwords[c.Username] = c.Password
	f.keys[c.Username] = bytes.Repeat([]byte{byte(len(f.keys) + 1)}, 32)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created successfully"})
}

func (f *fakeServer) login(w http.ResponseWriter, r *http.Request) {
	var c creds
	_ = json.NewDecoder(r.Body).Decode(&c)
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.passwords[c.Username]; !ok || pw != c.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	delete(f.revoked, "tok-"+c.Username)
	writeJSON(w, http.StatusOK, map[string]string{
		"token":  "tok-" + c.Username,
		"aesKey": base64.StdEncoding.EncodeToString(f.keys[c.Username]),
	})
}

func (f *fakeServer) authed(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		f.mu.Lock()
		user := strings.TrimPrefix(token, "tok-")
		_, known := f.passwords[user]
		revoked := f.revoked[token]
		f.mu.Unlock()
		if !known || revoked {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid token"})
			return
		}
		h(w, r, user)
	}
}

func (f *fakeServer) postEntry(w http.ResponseWriter, r *http.Request, user string) {
	var e storedEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil || e.EncryptedText == "" || e.EncryptedVector == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = user + "-" + string(rune('a'+len(f.entries[user])))
	e.CreatedAt = time.Now().UTC()
	f.entries[user] = append([]storedEntry{e}, f.entries[user]...)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "journal entry saved"})
}

func (f *fakeServer) setArchive(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archive = b
}

func (f *fakeServer) revoke(user string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked["tok-"+user] = true
}

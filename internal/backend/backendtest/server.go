// Package backendtest runs an in-memory records API for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Token is the bearer token the fake hands out and accepts.
const Token = "test-token"

// Envelope selects how list and single responses are wrapped.
type Envelope int

const (
	Bare Envelope = iota
	Data
	SuccessData
)

// Server is a fake records API. Records are stored as JSON objects keyed by
// resource; ids are assigned sequentially.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	envelope Envelope
	records  map[string][]map[string]any
	nextID   int
	calls    map[string]int
	failNext map[string]int
	users    map[string]string
	omitIDs  bool
	lastAuth string
	lastBody map[string]any
	lastPath string
	rawList  map[string]string
}

// NewServer starts a fake API and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		records:  map[string][]map[string]any{"contractors": {}, "suppliers": {}},
		calls:    make(map[string]int),
		failNext: make(map[string]int),
		users:    map[string]string{"admin@example.com": "secret1"},
		rawList:  make(map[string]string),
	}
	r := chi.NewRouter()
	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Route("/{resource}", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetEnvelope changes the response wrapping.
func (s *Server) SetEnvelope(e Envelope) {
	s.mu.Lock()
	s.envelope = e
	s.mu.Unlock()
}

// OmitIDs makes create and update responses leave out the id.
func (s *Server) OmitIDs(omit bool) {
	s.mu.Lock()
	s.omitIDs = omit
	s.mu.Unlock()
}

// RawList makes the next lists of resource answer body verbatim.
func (s *Server) RawList(resource, body string) {
	s.mu.Lock()
	s.rawList[resource] = body
	s.mu.Unlock()
}

// FailNext makes the next request whose key is "METHOD /resource" answer status.
func (s *Server) FailNext(key string, status int) {
	s.mu.Lock()
	s.failNext[key] = status
	s.mu.Unlock()
}

// Seed adds a record and returns its id.
func (s *Server) Seed(resource string, fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(resource, fields)
}

// Records returns a copy of the stored records of resource.
func (s *Server) Records(resource string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.records[resource]))
	copy(out, s.records[resource])
	return out
}

// Calls returns how often "METHOD /resource" was requested.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// LastAuthorization returns the Authorization header of the latest request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// LastBody returns the decoded JSON body of the latest write.
func (s *Server) LastBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBody
}

// LastPath returns the path of the latest request.
func (s *Server) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

func (s *Server) insert(resource string, fields map[string]any) string {
	s.nextID++
	id := strconv.Itoa(s.nextID)
	rec := map[string]any{"id": id, "sNo": len(s.records[resource]) + 1}
	for k, v := range fields {
		rec[k] = v
	}
	s.records[resource] = append(s.records[resource], rec)
	return id
}

// begin records the call and reports an injected failure status, if any.
func (s *Server) begin(r *http.Request, key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	s.lastAuth = r.Header.Get("Authorization")
	s.lastPath = r.URL.Path
	if status, ok := s.failNext[key]; ok {
		delete(s.failNext, key)
		return status, true
	}
	return 0, false
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+Token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
		return false
	}
	return true
}

func (s *Server) readBody(r *http.Request) map[string]any {
	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)
	s.mu.Lock()
	s.lastBody = body
	s.mu.Unlock()
	return body
}

func (s *Server) wrapOne(v any) any {
	switch s.envelope {
	case Data, SuccessData:
		return map[string]any{"data": v}
	default:
		return v
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.begin(r, "POST /auth/login"); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	body := s.readBody(r)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	s.mu.Lock()
	want, ok := s.users[email]
	s.mu.Unlock()
	if !ok || want != password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": Token,
		"user":  map[string]any{"id": 7, "name": "Admin", "email": email},
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.begin(r, "POST /auth/register"); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	body := s.readBody(r)
	name, _ := body["name"].(string)
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	s.mu.Lock()
	_, exists := s.users[email]
	if !exists {
		s.users[email] = password
	}
	s.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Email already registered"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": Token,
		"user":  map[string]any{"_id": "u-" + email, "name": name, "email": email},
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if status, fail := s.begin(r, "GET /"+resource); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !s.authorized(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := s.rawList[resource]; ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, raw)
		return
	}
	records, ok := s.records[resource]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown resource"})
		return
	}
	switch s.envelope {
	case Data:
		writeJSON(w, http.StatusOK, map[string]any{"data": records})
	case SuccessData:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": records})
	default:
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if status, fail := s.begin(r, "POST /"+resource); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !s.authorized(w, r) {
		return
	}
	body := s.readBody(r)
	s.mu.Lock()
	id := s.insert(resource, body)
	rec := s.find(resource, id)
	out := s.response(rec)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if status, fail := s.begin(r, "PUT /"+resource); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !s.authorized(w, r) {
		return
	}
	body := s.readBody(r)
	s.mu.Lock()
	rec := s.find(resource, chi.URLParam(r, "id"))
	if rec == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Record not found"})
		return
	}
	for k, v := range body {
		rec[k] = v
	}
	out := s.response(rec)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if status, fail := s.begin(r, "DELETE /"+resource); fail {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !s.authorized(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	records := s.records[resource]
	for i, rec := range records {
		if rec["id"] == id {
			s.records[resource] = append(records[:i:i], records[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
}

// find requires s.mu.
func (s *Server) find(resource, id string) map[string]any {
	for _, rec := range s.records[resource] {
		if rec["id"] == id {
			return rec
		}
	}
	return nil
}

// response requires s.mu.
func (s *Server) response(rec map[string]any) any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if s.omitIDs && strings.EqualFold(k, "id") {
			continue
		}
		out[k] = v
	}
	return s.wrapOne(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

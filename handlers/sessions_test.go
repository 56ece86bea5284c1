package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pats-app-go/database"
	"pats-app-go/models"
	"pats-app-go/services"

	"github.com/gorilla/mux"
)

var handlerTestDate = time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)

type handlerFixture struct {
	router *mux.Router
	now    time.Time
}

func newHandlerFixture() *handlerFixture {
	store := database.NewMemoryStore()
	standings := services.NewStandingsService(store, time.Minute)
	sessions := services.NewSessionService(store, standings)

	f := &handlerFixture{now: handlerTestDate}
	sessions.SetClock(func() time.Time { return f.now })
	standings.SetClock(func() time.Time { return f.now })

	handler := NewSessionHandler(sessions, standings)
	router := mux.NewRouter()
	router.HandleFunc("/api/sessions", handler.CreateSession).Methods("POST")
	router.HandleFunc("/api/sessions/active", handler.GetActiveSession).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", handler.GetSession).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/picks", handler.RecordPick).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/results", handler.ApplyResult).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/standings", handler.GetStandings).Methods("GET")
	f.router = router
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) createSession(t *testing.T) models.Session {
	t.Helper()
	body := map[string]interface{}{
		"kind": "global",
		"date": handlerTestDate,
		"games": []models.Game{
			{ID: "g1", Home: "PHI", Away: "DAL", CommenceTime: handlerTestDate.Add(time.Hour), HomeSpread: -3, AwaySpread: 3},
		},
	}
	rec := f.do(t, "POST", "/api/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d, body %s", rec.Code, rec.Body.String())
	}
	var session models.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	f := newHandlerFixture()
	session := f.createSession(t)

	// The active lookup finds it.
	rec := f.do(t, "GET", "/api/sessions/active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get active: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), session.ID) {
		t.Errorf("active response missing session id: %s", rec.Body.String())
	}

	// A second global session conflicts.
	body := map[string]interface{}{
		"kind": "global",
		"date": handlerTestDate,
		"games": []models.Game{
			{ID: "g9", Home: "KC", Away: "DEN", CommenceTime: handlerTestDate.Add(time.Hour)},
		},
	}
	if rec := f.do(t, "POST", "/api/sessions", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate session: status %d, want 409", rec.Code)
	}

	// Record a pick, grade the game, read standings.
	pick := map[string]interface{}{"user_id": "alice", "game_id": "g1", "side": "home"}
	if rec := f.do(t, "POST", "/api/sessions/"+session.ID+"/picks", pick); rec.Code != http.StatusCreated {
		t.Fatalf("record pick: status %d, body %s", rec.Code, rec.Body.String())
	}

	f.now = f.now.Add(2 * time.Hour)
	result := map[string]interface{}{"game_id": "g1", "home_score": 27, "away_score": 20, "status": "final"}
	rec = f.do(t, "POST", "/api/sessions/"+session.ID+"/results", result)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply result: status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "applied") {
		t.Errorf("result response = %s", rec.Body.String())
	}

	rec = f.do(t, "GET", "/api/sessions/"+session.ID+"/standings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("standings: status %d", rec.Code)
	}
	var standings models.Standings
	if err := json.Unmarshal(rec.Body.Bytes(), &standings); err != nil {
		t.Fatalf("decode standings: %v", err)
	}
	if len(standings.Rows) != 1 || standings.Rows[0].Wins != 1 {
		t.Errorf("standings rows = %+v", standings.Rows)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	f := newHandlerFixture()
	session := f.createSession(t)

	// Unknown session id: 404.
	if rec := f.do(t, "GET", "/api/sessions/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown session: status %d, want 404", rec.Code)
	}

	// Malformed body: 400.
	req := httptest.NewRequest("POST", "/api/sessions/"+session.ID+"/picks", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d, want 400", rec.Code)
	}

	// Pick after kickoff: 400 with the error message in the body.
	f.now = f.now.Add(2 * time.Hour)
	pick := map[string]interface{}{"user_id": "alice", "game_id": "g1", "side": "home"}
	rec = f.do(t, "POST", "/api/sessions/"+session.ID+"/picks", pick)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("late pick: status %d, want 400", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
		t.Errorf("error body = %s", rec.Body.String())
	}

	// Unknown kind on the active lookup: 400.
	if rec := f.do(t, "GET", "/api/sessions/active?kind=weird", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad kind: status %d, want 400", rec.Code)
	}
}

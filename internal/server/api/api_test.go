package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/superimpose/internal/body"
	"github.com/ayusman/superimpose/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestScoresHandler_List(t *testing.T) {
	s := newTestStore(t)
	for _, score := range []int{3, 9, 5} {
		if err := s.Results().Record(score, 100); err != nil {
			t.Fatal(err)
		}
	}
	h := NewScoresHandler(s)

	t.Run("returns results best first", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/scores")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}

		var resp scoresResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.HighScore != 9 || resp.Count != 3 || len(resp.Results) != 3 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Results[0].Score != 9 || resp.Results[2].Score != 3 {
			t.Errorf("results not ordered by score")
		}
	})

	t.Run("honours limit", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/scores?limit=1")
		var resp scoresResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Results) != 1 || resp.Count != 3 {
			t.Errorf("limit=1 returned %d results, count %d", len(resp.Results), resp.Count)
		}
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		for _, q := range []string{"-1", "many"} {
			if rec := serve(h, http.MethodGet, "/api/scores?limit="+q); rec.Code != http.StatusBadRequest {
				t.Errorf("limit=%s status = %d, want 400", q, rec.Code)
			}
		}
	})
}

func TestScoresHandler_Empty(t *testing.T) {
	rec := serve(NewScoresHandler(newTestStore(t)), http.MethodGet, "/api/scores")

	var raw map[string]json.RawMessage
	json.NewDecoder(rec.Body).Decode(&raw)
	if string(raw["results"]) != "[]" {
		t.Errorf("results = %s, want []", raw["results"])
	}
}

func TestScoresHandler_Get(t *testing.T) {
	s := newTestStore(t)
	res := &store.Result{Score: 4, Ticks: 10}
	if err := s.Results().Create(res); err != nil {
		t.Fatal(err)
	}
	h := NewScoresHandler(s)

	rec := serve(h, http.MethodGet, "/api/scores/"+res.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got store.Result
	json.NewDecoder(rec.Body).Decode(&got)
	if got.ID != res.ID || got.Score != 4 {
		t.Errorf("got %+v", got)
	}

	if rec := serve(h, http.MethodGet, "/api/scores/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/api/scores/"+res.ID); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE item status = %d, want 405", rec.Code)
	}
}

func TestScoresHandler_Reset(t *testing.T) {
	s := newTestStore(t)
	s.Results().Record(12, 100)
	h := NewScoresHandler(s)

	if rec := serve(h, http.MethodDelete, "/api/scores"); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if high, _ := s.Results().HighScore(); high != 0 {
		t.Errorf("high score = %d after reset, want 0", high)
	}
	if rec := serve(h, http.MethodPost, "/api/scores"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestCalibrationsHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewCalibrationsHandler(s)

	if rec := serve(h, http.MethodGet, "/api/calibrations/latest"); rec.Code != http.StatusNotFound {
		t.Errorf("latest before any calibration status = %d, want 404", rec.Code)
	}

	first := body.DefaultProfile()
	second := first
	second.NoseY = 150
	s.Calibrations().Record(first)
	s.Calibrations().Record(second)

	rec := serve(h, http.MethodGet, "/api/calibrations")
	var list calibrationsResponse
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Calibrations) != 2 || list.Calibrations[0].Profile != second {
		t.Errorf("unexpected list %+v", list)
	}

	rec = serve(h, http.MethodGet, "/api/calibrations/latest")
	var latest store.Calibration
	json.NewDecoder(rec.Body).Decode(&latest)
	if rec.Code != http.StatusOK || latest.Profile != second {
		t.Errorf("latest = %+v (status %d)", latest, rec.Code)
	}

	if rec := serve(h, http.MethodGet, "/api/calibrations/other"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/api/calibrations"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d, want 405", rec.Code)
	}
}

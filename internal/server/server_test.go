package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/scrimsight/go-scrim-metrics/internal/engine"
	"github.com/scrimsight/go-scrim-metrics/internal/logstore"
	"github.com/scrimsight/go-scrim-metrics/internal/model"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	tournamentID, err := db.CreateTournament(ctx, "Weekly Scrim")
	if err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	seedTeam := func(name string, players []string, roles []model.Role) {
		teamID, err := db.CreateTeam(ctx, tournamentID, name)
		if err != nil {
			t.Fatalf("CreateTeam: %v", err)
		}
		for i, p := range players {
			userID, err := db.CreateUser(ctx, p, p+"#1000")
			if err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
			entry := model.Player{TeamID: teamID, UserID: userID, Role: roles[i]}
			if err := db.CreatePlayer(ctx, &entry); err != nil {
				t.Fatalf("CreatePlayer: %v", err)
			}
		}
	}
	seedTeam("Alpha", []string{"p1", "p2"}, []model.Role{model.RoleDamage, model.RoleSupport})
	seedTeam("Bravo", []string{"p3", "p4"}, []model.Role{model.RoleDamage, model.RoleSupport})

	tables, err := translate.Load()
	if err != nil {
		t.Fatalf("load translation tables: %v", err)
	}
	store := logstore.NewDirStore(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := engine.New(db, store, tables, logger)
	return New(proc, db, store, logger, 2)
}

func sampleLog() []byte {
	statLine := func(ts float64, round int, team, player, hero string, elims, deaths int) string {
		counters := make([]string, 29)
		for i := range counters {
			counters[i] = "0"
		}
		counters[0] = strconv.Itoa(elims)
		counters[2] = strconv.Itoa(deaths)
		return fmt.Sprintf("0,player_stat,%.1f,%d,%s,%s,%s,%s",
			ts, round, team, player, hero, strings.Join(counters, ","))
	}
	lines := []string{
		"0,match_start,0,King's Row,Alpha,Bravo,Hybrid",
		"0,round_start,1,1",
		"0,kill,10,p1,Tracer,p3,Ana,Primary Fire,200,1,0",
		statLine(90, 1, "Alpha", "p1", "Tracer", 2, 0),
		statLine(90, 1, "Alpha", "p2", "Mercy", 0, 1),
		statLine(90, 1, "Bravo", "p3", "Ana", 1, 1),
		statLine(90, 1, "Bravo", "p4", "Lucio", 0, 0),
		"0,round_end,90,1,1,0",
		"0,match_end,90,1,1,0",
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func multipartLog(t *testing.T, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("log", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
}

func TestUploadAndReadBack(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartLog(t, "Round_2023-05-13-19-18-04.txt", sampleLog())
	req := httptest.NewRequest(http.MethodPost, "/api/tournaments/1/logs", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}

	var uploaded struct {
		Match string `json:"match"`
		Kills int    `json:"kills"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if uploaded.Match == "" || uploaded.Kills != 1 {
		t.Errorf("upload response = %s", rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/matches", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list matches = %d", rec.Code)
	}
	var listed struct {
		Matches []struct {
			ID    string `json:"id"`
			Map   string `json:"map"`
			Team1 string `json:"team1"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode match list: %v", err)
	}
	if len(listed.Matches) != 1 || listed.Matches[0].ID != uploaded.Match {
		t.Fatalf("match list = %s", rec.Body.String())
	}
	if listed.Matches[0].Map != "KingsRow" || listed.Matches[0].Team1 != "Alpha" {
		t.Errorf("listed match = %+v", listed.Matches[0])
	}

	// Stats are addressable by id prefix.
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/matches/"+uploaded.Match[:8]+"/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("match stats = %d: %s", rec.Code, rec.Body.String())
	}
	var stats struct {
		Players  []struct{ Name string } `json:"players"`
		Killfeed []struct{ FightID int } `json:"killfeed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if len(stats.Players) != 4 {
		t.Errorf("got %d player summaries, want 4", len(stats.Players))
	}
	if len(stats.Killfeed) != 1 {
		t.Errorf("got %d kill feed rows, want 1", len(stats.Killfeed))
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	// No multipart field.
	req := httptest.NewRequest(http.MethodPost, "/api/tournaments/1/logs", strings.NewReader("not multipart"))
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", rec.Code)
	}

	// Non-numeric tournament id.
	body, contentType := multipartLog(t, "x.txt", sampleLog())
	req = httptest.NewRequest(http.MethodPost, "/api/tournaments/abc/logs", body)
	req.Header.Set("Content-Type", contentType)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("bad tournament id = %d, want 400", rec.Code)
	}

	// A log with no match_end is a content error, not a server error.
	truncated := strings.Replace(string(sampleLog()), "0,match_end,90,1,1,0\n", "", 1)
	body, contentType = multipartLog(t, "x.txt", []byte(truncated))
	req = httptest.NewRequest(http.MethodPost, "/api/tournaments/1/logs", body)
	req.Header.Set("Content-Type", contentType)
	if rec := do(s, req); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unfinished match = %d, want 422", rec.Code)
	}
}

func TestMatchStatsUnknownID(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/matches/deadbeef/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown match = %d, want 404", rec.Code)
	}
}

func TestAsyncEndpointsAccept(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/tournaments/1/logs/absent.txt/process", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("async process = %d, want 202", rec.Code)
	}
	var resp struct {
		Job string `json:"job"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Job == "" {
		t.Errorf("async response = %s", rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodPost, "/api/tournaments/1/process",
		strings.NewReader(`{"workers":1}`)))
	if rec.Code != http.StatusAccepted {
		t.Errorf("bulk process = %d, want 202", rec.Code)
	}
}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/history"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/lock"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/stats"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/store"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/words"
)

const secret = "test_secret"

func newTestServer(t *testing.T) *Server {
	// A single answer keeps the target deterministic.
	ws, err := words.New([]string{"crane"}, []string{"slate", "cezve", "sheep", "adieu", "stomp", "fling", "blimp"})
	require.NoError(t, err)
	repo := store.NewMemory()
	return New(Deps{
		Engine:  game.NewEngine(repo, ws, lock.NewLocal(), game.Options{}),
		Stats:   stats.NewAggregator(repo),
		History: history.NewBrowser(repo),
		Words:   ws,
	}, Options{JWTSecret: secret, CookieName: "wordle_token"})
}

func token(t *testing.T, player string) string {
	tok, _, err := SignToken(secret, player, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, s *Server, method, path, player, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if player != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, player))
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec, body = do(t, s, http.MethodGet, "/debug/words", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["answers"])
	assert.Equal(t, float64(8), body["allowed"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodPost, "/play", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/play", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bad, _, err := SignToken("other_secret", "p1", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/play", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCookieAuth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/play", nil)
	req.AddCookie(&http.Cookie{Name: "wordle_token", Value: token(t, "p1")})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlayGuessWin(t *testing.T) {
	s := newTestServer(t)

	rec, board := do(t, s, http.MethodPost, "/play", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IN_PROGRESS", board["status"])
	assert.Equal(t, float64(game.MaxGuesses), board["remaining"])
	assert.NotContains(t, board, "answer", "target must stay hidden while playing")

	rec, res := do(t, s, http.MethodPost, "/guess", "p1", `{"word":"CEZVE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"correct", "present", "absent", "absent", "correct"}, res["feedback"])
	b := res["board"].(map[string]any)
	assert.Equal(t, float64(5), b["remaining"])
	assert.NotContains(t, b, "answer")

	rec, res = do(t, s, http.MethodPost, "/guess", "p1", `{"word":"crane"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b = res["board"].(map[string]any)
	assert.Equal(t, "WON", b["status"])
	assert.Equal(t, "crane", b["answer"])
	assert.Equal(t, "Wordle Bot 2/6\n\n🟩🟨⬛⬛🟩\n🟩🟩🟩🟩🟩", b["share"])
}

func TestGuessErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name, body string
		status     int
		code       string
	}{
		{"bad json", `{`, http.StatusBadRequest, "bad_json"},
		{"short", `{"word":"cat"}`, http.StatusBadRequest, "invalid_length"},
		{"unknown", `{"word":"zzzzz"}`, http.StatusBadRequest, "invalid_word"},
		{"no game", `{"word":"slate"}`, http.StatusConflict, "no_active_game"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodPost, "/guess", "p1", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, body["error"])
		})
	}
}

func TestBoardRedrawsRunningGame(t *testing.T) {
	s := newTestServer(t)
	rec, body := do(t, s, http.MethodGet, "/board", "p1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_active_game", body["error"])

	_, started := do(t, s, http.MethodPost, "/play", "p1", "")
	do(t, s, http.MethodPost, "/guess", "p1", `{"word":"slate"}`)

	rec, board := do(t, s, http.MethodGet, "/board", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, started["gameId"], board["gameId"])
	assert.Equal(t, float64(5), board["remaining"])
	assert.Len(t, board["guesses"], 1)
	assert.NotContains(t, board, "answer")

	// Redrawing twice changes nothing.
	_, again := do(t, s, http.MethodGet, "/board", "p1", "")
	assert.Equal(t, board, again)
}

func TestWriteError_ContextErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{context.Canceled, statusClientClosedRequest, "request_cancelled"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Error)
	}
}

func TestCancelledRequestIsNotAnInternalError(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/play", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token(t, "p1"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, statusClientClosedRequest, rec.Code)
}

func TestQuitRevealsAnswer(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodPost, "/quit", "p1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	do(t, s, http.MethodPost, "/play", "p1", "")
	rec, board := do(t, s, http.MethodPost, "/quit", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "QUIT", board["status"])
	assert.Equal(t, "crane", board["answer"])
}

func TestStatsAndHistory(t *testing.T) {
	s := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/stats", "p1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "insufficient_data", body["error"])

	rec, body = do(t, s, http.MethodGet, "/history", "p1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_history", body["error"])

	// One win in two, then a quit.
	do(t, s, http.MethodPost, "/play", "p1", "")
	do(t, s, http.MethodPost, "/guess", "p1", `{"word":"slate"}`)
	do(t, s, http.MethodPost, "/guess", "p1", `{"word":"crane"}`)
	do(t, s, http.MethodPost, "/play", "p1", "")
	do(t, s, http.MethodPost, "/quit", "p1", "")
	do(t, s, http.MethodPost, "/play", "p2", "")

	rec, body = do(t, s, http.MethodGet, "/stats", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["started"])
	assert.Equal(t, float64(2), body["finished"])
	assert.Equal(t, float64(1), body["wins"])
	assert.Equal(t, float64(0), body["currentStreak"])
	assert.Equal(t, float64(1), body["maxStreak"])
	assert.Equal(t, []any{0.0, 1.0, 0.0, 0.0, 0.0, 0.0}, body["distribution"])

	// Anyone may look up a player by name.
	rec, body = do(t, s, http.MethodGet, "/stats?player=p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", body["player"])

	rec, body = do(t, s, http.MethodGet, "/stats/global", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["started"])
	assert.NotContains(t, body, "player")

	rec, body = do(t, s, http.MethodGet, "/stats/guesses", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, 1.0, body["perGame"])
	assert.Equal(t, 2.0, body["perWin"])
	assert.Equal(t, []any{
		map[string]any{"word": "crane", "count": 1.0},
		map[string]any{"word": "slate", "count": 1.0},
	}, body["topGuesses"])

	rec, _ = do(t, s, http.MethodGet, "/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = do(t, s, http.MethodGet, "/history", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["number"])
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, true, body["hasOlder"])
	assert.Equal(t, "QUIT", body["board"].(map[string]any)["status"])

	rec, body = do(t, s, http.MethodGet, "/history?offset=1", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WON", body["board"].(map[string]any)["status"])
	assert.Equal(t, false, body["hasOlder"])

	rec, body = do(t, s, http.MethodGet, "/history?offset=2", "p1", "")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "out_of_range", body["error"])

	rec, _ = do(t, s, http.MethodGet, "/history?offset=x", "p1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)
	rec, body := do(t, s, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

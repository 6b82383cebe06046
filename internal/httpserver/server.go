// internal/httpserver/server.go
//
// HTTP command surface for the Wordle bot engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     request logging).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Player commands (require auth): POST /play, /guess, /quit;
//     GET /board, /history.
//   - Stats (optional auth): GET /stats, /stats/global, /stats/guesses.
//
// Notes:
//   - A chat gateway signs a JWT per player; the "id" claim is the player id.
//   - Engine errors map to HTTP status codes in errors.go.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/history"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/stats"
)

// Engine is the slice of game.Engine the handlers drive.
type Engine interface {
	Start(ctx context.Context, playerID string) (*game.Game, error)
	Guess(ctx context.Context, playerID, word string) (*game.GuessResult, error)
	Quit(ctx context.Context, playerID string) (*game.Game, error)
	Active(ctx context.Context, playerID string) (*game.Game, error)
}

// WordCounter reports word pool sizes for /debug/words.
type WordCounter interface {
	Counts() (answers, allowed int)
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	Engine  Engine
	Stats   *stats.Aggregator
	History *history.Browser
	Words   WordCounter
}

// Options carry the auth and CORS settings.
type Options struct {
	JWTSecret    string
	CookieName   string
	ClientOrigin string
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	deps Deps
	auth authenticator
	srv  *http.Server
}

// topN bounds the guess leaderboards.
const topN = 10

// New constructs a Server, installs middleware, and registers routes.
func New(deps Deps, opts Options) *Server {
	s := &Server{
		r:    chi.NewRouter(),
		deps: deps,
		auth: authenticator{secret: []byte(opts.JWTSecret), cookie: opts.CookieName},
	}
	if s.auth.cookie == "" {
		s.auth.cookie = "wordle_token"
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "wordle-bot",
			"endpoints": []string{"/health", "POST /play", "POST /guess", "POST /quit", "/board", "/stats", "/stats/global", "/stats/guesses", "/history"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := s.deps.Words.Counts()
		writeJSON(w, http.StatusOK, map[string]int{"answers": a, "allowed": g})
	})

	// Player commands act on the caller's own game.
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.require)
		r.Post("/play", s.handlePlay)
		r.Post("/guess", s.handleGuess)
		r.Post("/quit", s.handleQuit)
		r.Get("/board", s.handleBoard)
		r.Get("/history", s.handleHistory)
	})

	// Stats may target another player via ?player=.
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.optional)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/global", s.handleGlobalStats)
		r.Get("/stats/guesses", s.handleGuessStats)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ GAME ---------------------------------------

type guessReq struct {
	Word string `json:"word"`
}

// handlePlay starts or resumes the caller's game and returns the board.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Engine.Start(r.Context(), playerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoard(g))
}

// handleGuess applies one guess and returns the board plus its feedback.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: "body must be {\"word\": \"...\"}"})
		return
	}
	res, err := s.deps.Engine.Guess(r.Context(), playerID(r), req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guessRes{Board: newBoard(res.Game), Feedback: res.Feedback})
}

// handleBoard redraws the caller's running game without changing it.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Engine.Active(r.Context(), playerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoard(g))
}

// handleQuit ends the caller's game and reveals the word.
func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Engine.Quit(r.Context(), playerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoard(g))
}

// ------------------------------ HISTORY ------------------------------------

// handleHistory returns one finished game, ?offset=0 being the newest.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_offset", Message: "offset must be an integer"})
			return
		}
		offset = n
	}
	p, err := s.deps.History.Page(r.Context(), playerID(r), offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newHistoryPage(p))
}

// ------------------------------- STATS -------------------------------------

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	scope, ok := s.playerScope(w, r)
	if !ok {
		return
	}
	sum, err := s.deps.Stats.Summary(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(sum))
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Stats.Summary(r.Context(), stats.Global)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(sum))
}

// handleGuessStats serves the guess leaderboards; ?scope=global covers
// every player.
func (s *Server) handleGuessStats(w http.ResponseWriter, r *http.Request) {
	scope := stats.Global
	if r.URL.Query().Get("scope") != "global" {
		var ok bool
		if scope, ok = s.playerScope(w, r); !ok {
			return
		}
	}
	sum, err := s.deps.Stats.Summary(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGuessStats(sum))
}

// playerScope resolves ?player= or falls back to the caller.
func (s *Server) playerScope(w http.ResponseWriter, r *http.Request) (stats.Scope, bool) {
	if p := r.URL.Query().Get("player"); p != "" {
		return stats.Player(p), true
	}
	if id := playerID(r); id != "" {
		return stats.Player(id), true
	}
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "sign in or pass ?player="})
	return stats.Scope{}, false
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

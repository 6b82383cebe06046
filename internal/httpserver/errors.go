package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/history"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/stats"
)

// statusClientClosedRequest is the nginx convention for a caller that gave
// up before the response was ready.
const statusClientClosedRequest = 499

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorCodes maps domain errors to HTTP status and a stable code.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{game.ErrInvalidLength, http.StatusBadRequest, "invalid_length"},
	{game.ErrInvalidWord, http.StatusBadRequest, "invalid_word"},
	{game.ErrNoActiveGame, http.StatusConflict, "no_active_game"},
	{game.ErrAlreadyPlaying, http.StatusConflict, "already_playing"},
	{game.ErrPlayerBusy, http.StatusConflict, "player_busy"},
	{stats.ErrInsufficientData, http.StatusNotFound, "insufficient_data"},
	{history.ErrNoHistory, http.StatusNotFound, "no_history"},
	{history.ErrHistoryOutOfRange, http.StatusRequestedRangeNotSatisfiable, "out_of_range"},
	{game.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
	{context.Canceled, statusClientClosedRequest, "request_cancelled"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
}

// writeError renders err with the matching status; unknown errors are 500s
// and their detail stays in the log.
func writeError(w http.ResponseWriter, err error) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			if c.status >= http.StatusInternalServerError {
				log.Error().Err(err).Msg("request failed")
				writeJSON(w, c.status, errorBody{Error: c.code})
				return
			}
			writeJSON(w, c.status, errorBody{Error: c.code, Message: c.err.Error()})
			return
		}
	}
	log.Error().Err(err).Msg("unhandled error")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

const defaultHistoryLimit = 10

// Handlers exposes the running client over HTTP for local tooling.
type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)
	SessionHandler(w http.ResponseWriter, r *http.Request)
	HistoryHandler(w http.ResponseWriter, r *http.Request)
}

type snapshotSource interface {
	Snapshot(ctx context.Context) (entity.Snapshot, error)
}

type historySource interface {
	History(ctx context.Context, limit int64) ([]*entity.Result, error)
}

type handlers struct {
	logger    *slog.Logger
	snapshots snapshotSource
	history   historySource
}

// NewHandlers - history may be nil when no storage is configured.
func NewHandlers(logger *slog.Logger, snapshots snapshotSource, history historySource) Handlers {
	return &handlers{
		logger:    logger.With("component", "rest_handlers"),
		snapshots: snapshots,
		history:   history,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SessionHandler")

	snapshot, err := that.snapshots.Snapshot(r.Context())
	if errors.Is(err, apperror.ErrSessionClosed) {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	if err != nil {
		log.Error("failed to get snapshot", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, snapshot)
}

func (that *handlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "HistoryHandler")

	if that.history == nil {
		http.Error(w, "history is not available", http.StatusServiceUnavailable)
		return
	}

	limit := int64(defaultHistoryLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := that.history.History(r.Context(), limit)
	if err != nil {
		log.Error("failed to get history", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, results)
}

func (that *handlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

// Package api is the thin JSON facade over the sync engine. It owns the
// mapping from engine error kinds to transport status codes and nothing
// else; all repository semantics live in internal/repos.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/git-autobot/git-autobot/internal/repos"
	"github.com/git-autobot/git-autobot/internal/watch"
)

type Server struct {
	engine  *repos.Engine
	watcher *watch.Watcher
	log     *slog.Logger
}

func New(engine *repos.Engine, watcher *watch.Watcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, watcher: watcher, log: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /local/repos", s.handleList)
	mux.HandleFunc("GET /local/repos/events", s.handleEvents)
	mux.HandleFunc("GET /local/repos/{name}", s.handleInspect)
	mux.HandleFunc("GET /local/repos/{name}/status", s.handleStatus)
	mux.HandleFunc("GET /local/repos/{name}/branches", s.handleBranches)
	mux.HandleFunc("POST /local/repos/{name}/clone", s.handleClone)
	mux.HandleFunc("POST /local/repos/{name}/stash", s.handleStash)
	mux.HandleFunc("POST /local/repos/{name}/commit", s.handleCommit)
	mux.HandleFunc("POST /local/repos/{name}/checkout", s.handleCheckout)
	mux.HandleFunc("POST /local/repos/{name}/reset", s.handleReset)
	mux.HandleFunc("POST /local/repos/{name}/cherry-pick", s.handleCherryPick)
	mux.HandleFunc("POST /local/repos/{name}/push", s.handlePush)
	mux.HandleFunc("POST /local/repos/{name}/sync-status", s.handleSyncStatus)
	mux.HandleFunc("GET /local/repos/{name}/log", s.handleLog)
	mux.HandleFunc("GET /local/repos/{name}/diff", s.handleDiff)
	mux.HandleFunc("GET /local/repos/{name}/staged", s.handleStaged)
	mux.HandleFunc("GET /local/repos/{name}/file/{path...}", s.handleFile)
	return s.requestLogger(mux)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

// statusForKind maps the engine's stable error kinds to HTTP status codes.
func statusForKind(kind repos.Kind) int {
	switch kind {
	case repos.KindInvalidName, repos.KindPathTraversal, repos.KindInvalidArgument:
		return http.StatusBadRequest
	case repos.KindNotFound:
		return http.StatusNotFound
	case repos.KindRemoteMismatch, repos.KindNonFastForward, repos.KindCherryPickConflict:
		return http.StatusConflict
	case repos.KindTimeout:
		return http.StatusGatewayTimeout
	case repos.KindGitExecution:
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := repos.KindOf(err)
	var payload errorPayload
	payload.Error.Code = string(kind)
	payload.Error.Message = err.Error()
	s.writeJSON(w, statusForKind(kind), payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", slog.Any("error", err))
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

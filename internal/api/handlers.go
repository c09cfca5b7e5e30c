package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/git-autobot/git-autobot/internal/highlight"
	"github.com/git-autobot/git-autobot/internal/repos"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []repos.RepoSummary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Inspect(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.Inspect(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"branch": state.Branch,
		"dirty":  state.Dirty,
		"files":  state.Status.Entries,
	})
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.engine.Branches(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, branches)
}

type cloneRequest struct {
	RemoteURL string `json:"remote_url"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
}

func (s *Server) handleClone(w http.ResponseWriter, r *http.Request) {
	var body cloneRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.CloneOrUpdate(r.Context(), r.PathValue("name"), body.RemoteURL,
		repos.Credentials{Username: body.Username, Password: body.Password})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type stashRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleStash(w http.ResponseWriter, r *http.Request) {
	var body stashRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.Stash(r.Context(), r.PathValue("name"), repos.StashAction(body.Action))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type commitRequest struct {
	Message     string `json:"message"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	StageAll    bool   `json:"stage_all,omitempty"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var body commitRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.Commit(r.Context(), r.PathValue("name"), repos.CommitOptions{
		Message:     body.Message,
		AuthorName:  body.AuthorName,
		AuthorEmail: body.AuthorEmail,
		StageAll:    body.StageAll,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type checkoutRequest struct {
	Branch string `json:"branch"`
	Create bool   `json:"create,omitempty"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.Checkout(r.Context(), r.PathValue("name"), body.Branch, body.Create)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type resetRequest struct {
	Mode string `json:"mode"`
	Ref  string `json:"ref"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var body resetRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.Reset(r.Context(), r.PathValue("name"), repos.ResetMode(body.Mode), body.Ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type cherryPickRequest struct {
	SHAs []string `json:"shas"`
}

func (s *Server) handleCherryPick(w http.ResponseWriter, r *http.Request) {
	var body cherryPickRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.CherryPick(r.Context(), r.PathValue("name"), body.SHAs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type pushRequest struct {
	Branch   string `json:"branch,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var body pushRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	result, err := s.engine.Push(r.Context(), r.PathValue("name"), body.Branch,
		repos.Credentials{Username: body.Username, Password: body.Password})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type syncStatusRequest struct {
	Branch    string `json:"branch,omitempty"`
	RemoteTip string `json:"remote_tip"`
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	var body syncStatusRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, badBody(err))
		return
	}
	record, err := s.engine.SyncStatus(r.Context(), r.PathValue("name"), body.Branch, body.RemoteTip)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, badBody(fmt.Errorf("limit: %w", err)))
			return
		}
		limit = n
	}
	entries, err := s.engine.Log(r.Context(), r.PathValue("name"), limit, r.URL.Query().Get("author"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.engine.Diff(r.Context(), r.PathValue("name"), q.Get("target"), repos.DiffMode(q.Get("mode")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStaged(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Staged(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file, err := s.engine.FileAt(r.Context(), r.PathValue("name"), r.PathValue("path"), q.Get("ref"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if q.Get("highlight") == "1" {
		rendered, err := highlight.HTML(file.Path, file.Content)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"path": file.Path, "ref": file.Ref, "html": rendered,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, file)
}

func badBody(err error) errorPayload {
	var payload errorPayload
	payload.Error.Code = "invalid_request_body"
	payload.Error.Message = err.Error()
	return payload
}

package api

import (
	"net/http"
	"strconv"

	"github.com/kalambet/talentflow/internal/hiring"
)

func handleListCandidates(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := hiring.CandidateQuery{
			Search:   q.Get("search"),
			Page:     parseIntParam(r, "page", 1, 0),
			PageSize: parseIntParam(r, "pageSize", hiring.DefaultCandidatePageSize, hiring.MaxPageSize),
		}
		if s := q.Get("stage"); s != "" {
			st, err := hiring.ParseStage(s)
			if err != nil {
				httpError(w, http.StatusBadRequest, "%v", err)
				return
			}
			query.Stage = st
		}
		if s := q.Get("jobId"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid jobId %q", s)
				return
			}
			query.JobID = id
		}

		writeJSON(w, http.StatusOK, deps.Backend.ListCandidates(query))
	}
}

func handleGetCandidate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		c, err := deps.Backend.GetCandidate(id)
		if err != nil {
			writeBackendError(w, err, "Candidate not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleCreateCandidate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in hiring.CandidateInput
		if !decodeBody(w, r, &in) {
			return
		}
		c, err := deps.Backend.CreateCandidate(r.Context(), in)
		if err != nil {
			writeBackendError(w, err, "Candidate not found")
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleUpdateCandidate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		var p hiring.CandidatePatch
		if !decodeBody(w, r, &p) {
			return
		}
		c, err := deps.Backend.UpdateCandidate(r.Context(), id, p)
		if err != nil {
			writeBackendError(w, err, "Candidate not found")
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleTimeline(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		events, err := deps.Backend.Timeline(id)
		if err != nil {
			writeBackendError(w, err, "Candidate not found")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

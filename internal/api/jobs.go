package api

import (
	"net/http"

	"github.com/kalambet/talentflow/internal/hiring"
)

func handleListJobs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := hiring.JobQuery{
			Search:   q.Get("search"),
			Status:   hiring.JobStatus(q.Get("status")),
			Sort:     hiring.JobSort(q.Get("sort")),
			Page:     parseIntParam(r, "page", 1, 0),
			PageSize: parseIntParam(r, "pageSize", hiring.DefaultJobPageSize, hiring.MaxPageSize),
		}
		if query.Status != "" && !query.Status.Valid() {
			httpError(w, http.StatusBadRequest, "unknown status %q", query.Status)
			return
		}
		switch query.Sort {
		case "", hiring.SortManual, hiring.SortTitle, hiring.SortCreated:
		default:
			httpError(w, http.StatusBadRequest, "unknown sort %q", query.Sort)
			return
		}

		writeJSON(w, http.StatusOK, deps.Backend.ListJobs(query))
	}
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		j, err := deps.Backend.GetJob(id)
		if err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

func handleCreateJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in hiring.JobInput
		if !decodeBody(w, r, &in) {
			return
		}
		j, err := deps.Backend.CreateJob(r.Context(), in)
		if err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusCreated, j)
	}
}

func handleUpdateJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		var p hiring.JobPatch
		if !decodeBody(w, r, &p) {
			return
		}
		j, err := deps.Backend.UpdateJob(r.Context(), id, p)
		if err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, j)
	}
}

func handleReorderJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		var req hiring.ReorderRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := deps.Backend.ReorderJob(r.Context(), id, req); err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func handleDeleteJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}
		if err := deps.Backend.DeleteJob(r.Context(), id); err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

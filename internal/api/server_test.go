package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/mockapi"
)

func setupHandler(t *testing.T, chaos *mockapi.Chaos) (http.Handler, *mockapi.Backend) {
	t.Helper()
	docs, err := docstore.Open(":memory:", docstore.DefaultSchema)
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { docs.Close() })

	backend := mockapi.New(docs)
	return NewHandler(Deps{Backend: backend, Chaos: chaos}), backend
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", rr.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func TestHealth(t *testing.T) {
	h, _ := setupHandler(t, nil)
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestCreateJobAndDuplicateSlug(t *testing.T) {
	h, _ := setupHandler(t, nil)

	body := `{"title":"QA Engineer","slug":"qa-engineer","status":"active","tags":["remote"]}`
	rr := do(t, h, http.MethodPost, "/api/jobs", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", rr.Code, rr.Body.String())
	}
	created := decode[hiring.Job](t, rr)
	if created.Slug != "qa-engineer" || created.Order != 1 {
		t.Errorf("created = %+v", created)
	}

	rr = do(t, h, http.MethodGet, "/api/jobs?status=active", "")
	page := decode[hiring.Page[hiring.Job]](t, rr)
	if len(page.Data) != 1 || page.Data[0].Title != "QA Engineer" {
		t.Fatalf("list = %+v", page)
	}
	if page.Pagination.Total != 1 || page.Pagination.PageSize != hiring.DefaultJobPageSize {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	rr = do(t, h, http.MethodPost, "/api/jobs", `{"title":"Another QA","slug":"qa-engineer"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if got := decode[errorBody](t, rr).Error; got != "Slug already exists" {
		t.Errorf("error = %q", got)
	}
}

func TestCreateJobValidation(t *testing.T) {
	h, _ := setupHandler(t, nil)

	rr := do(t, h, http.MethodPost, "/api/jobs", `{"title":"","slug":"Not A Slug"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if _, ok := body.Fields["title"]; !ok {
		t.Errorf("fields = %v, want title", body.Fields)
	}
	if _, ok := body.Fields["slug"]; !ok {
		t.Errorf("fields = %v, want slug", body.Fields)
	}

	rr = do(t, h, http.MethodPost, "/api/jobs", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestListJobsRejectsUnknownFilters(t *testing.T) {
	h, _ := setupHandler(t, nil)
	for _, url := range []string{"/api/jobs?status=paused", "/api/jobs?sort=salary"} {
		if rr := do(t, h, http.MethodGet, url, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rr.Code)
		}
	}
}

func TestReorderRoute(t *testing.T) {
	h, backend := setupHandler(t, nil)
	ctx := context.Background()
	var ids []int64
	for _, title := range []string{"A", "B", "C"} {
		j, err := backend.CreateJob(ctx, hiring.JobInput{Title: title})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, j.ID)
	}

	rr := do(t, h, http.MethodPatch, "/api/jobs/1/reorder", `{"fromOrder":1,"toOrder":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if !decode[map[string]bool](t, rr)["success"] {
		t.Error("expected success")
	}

	want := map[int64]int{ids[0]: 3, ids[1]: 1, ids[2]: 2}
	for id, order := range want {
		j, _ := backend.GetJob(id)
		if j.Order != order {
			t.Errorf("job %d order = %d, want %d", id, j.Order, order)
		}
	}
}

func TestReorderConflictsAndOrderClash(t *testing.T) {
	h, backend := setupHandler(t, nil)
	for _, title := range []string{"A", "B"} {
		if _, err := backend.CreateJob(context.Background(), hiring.JobInput{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	rr := do(t, h, http.MethodPatch, "/api/jobs/1/reorder", `{"fromOrder":2,"toOrder":1}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("stale fromOrder status = %d, want 409; body = %s", rr.Code, rr.Body.String())
	}
	if msg := decode[map[string]any](t, rr)["error"]; msg == nil || msg == "" {
		t.Error("expected an error message")
	}

	rr = do(t, h, http.MethodPost, "/api/jobs", `{"title":"C","order":2}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("taken order status = %d, want 400", rr.Code)
	}
	fields, _ := decode[map[string]any](t, rr)["fields"].(map[string]any)
	if _, ok := fields["order"]; !ok {
		t.Errorf("fields = %v, want order", fields)
	}

	rr = do(t, h, http.MethodPatch, "/api/jobs/2", `{"order":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("patch to taken order status = %d, want 400", rr.Code)
	}
}

func TestHugePageIsEmpty(t *testing.T) {
	h, backend := setupHandler(t, nil)
	if _, err := backend.CreateJob(context.Background(), hiring.JobInput{Title: "A"}); err != nil {
		t.Fatal(err)
	}

	rr := do(t, h, http.MethodGet, "/api/jobs?page=6148914691236517206&pageSize=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	page := decode[hiring.Page[hiring.Job]](t, rr)
	if len(page.Data) != 0 || page.Pagination.Total != 1 {
		t.Errorf("page = %+v, want empty data with total 1", page)
	}
}

func TestInjectedFailures(t *testing.T) {
	chaos := mockapi.NewChaos(mockapi.ChaosConfig{FailureRate: 1, ReorderFailureRate: 1}, 1)
	h, backend := setupHandler(t, chaos)
	if _, err := backend.CreateJob(context.Background(), hiring.JobInput{Title: "A"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method, url, body string
		wantMsg           string
	}{
		{http.MethodPost, "/api/jobs", `{"title":"B"}`, "Random error"},
		{http.MethodPatch, "/api/jobs/1", `{"title":"B"}`, "Random error"},
		{http.MethodPatch, "/api/jobs/1/reorder", `{"fromOrder":1,"toOrder":1}`, "Injected 500 for reorder"},
	}
	for _, tt := range tests {
		rr := do(t, h, tt.method, tt.url, tt.body)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: status = %d, want 500", tt.method, tt.url, rr.Code)
			continue
		}
		if got := decode[errorBody](t, rr).Error; got != tt.wantMsg {
			t.Errorf("%s %s: error = %q, want %q", tt.method, tt.url, got, tt.wantMsg)
		}
	}

	// Reads are unaffected at the default read failure rate.
	if rr := do(t, h, http.MethodGet, "/api/jobs", ""); rr.Code != http.StatusOK {
		t.Errorf("GET /api/jobs status = %d", rr.Code)
	}
	if j, _ := backend.GetJob(1); j.Title != "A" {
		t.Errorf("failed update still applied: %+v", j)
	}
}

func TestCandidateRoutes(t *testing.T) {
	h, backend := setupHandler(t, nil)
	if _, err := backend.CreateJob(context.Background(), hiring.JobInput{Title: "Engineer"}); err != nil {
		t.Fatal(err)
	}

	rr := do(t, h, http.MethodPost, "/api/candidates", `{"name":"Ann Lee","email":"ann@example.com","jobId":1}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPatch, "/api/candidates/1", `{"stage":"offer"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d; body = %s", rr.Code, rr.Body.String())
	}
	do(t, h, http.MethodPatch, "/api/candidates/1", `{"stage":"offer"}`)

	rr = do(t, h, http.MethodGet, "/api/candidates/1/timeline", "")
	events := decode[[]hiring.TimelineEvent](t, rr)
	if len(events) != 1 || events[0].ToStage != hiring.StageOffer {
		t.Errorf("timeline = %+v", events)
	}

	rr = do(t, h, http.MethodGet, "/api/candidates?stage=offer&jobId=1", "")
	page := decode[hiring.Page[hiring.Candidate]](t, rr)
	if page.Pagination.Total != 1 || page.Pagination.PageSize != hiring.DefaultCandidatePageSize {
		t.Errorf("page = %+v", page.Pagination)
	}

	rr = do(t, h, http.MethodGet, "/api/candidates/42", "")
	if rr.Code != http.StatusNotFound || decode[errorBody](t, rr).Error != "Candidate not found" {
		t.Errorf("missing candidate: %d %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, h, http.MethodGet, "/api/candidates?stage=lunch", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown stage status = %d", rr.Code)
	}
}

func TestDeleteJobInUse(t *testing.T) {
	h, backend := setupHandler(t, nil)
	ctx := context.Background()
	backend.CreateJob(ctx, hiring.JobInput{Title: "Engineer"})
	backend.CreateCandidate(ctx, hiring.CandidateInput{Name: "Ann", Email: "ann@example.com", JobID: 1})

	rr := do(t, h, http.MethodDelete, "/api/jobs/1", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
	rr = do(t, h, http.MethodDelete, "/api/jobs/9", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestInvalidID(t *testing.T) {
	h, _ := setupHandler(t, nil)
	if rr := do(t, h, http.MethodGet, "/api/jobs/abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

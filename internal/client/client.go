// Package client is a typed HTTP client for the talentflow /api routes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kalambet/talentflow/internal/hiring"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for baseURL, the /api prefix included.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "server not reachable, is talentflow serving?", Err: err}
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Fields = payload.Fields
		}
		return apiErr
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}

// Health checks the server's /health endpoint, which lives beside /api.
func (c *Client) Health(ctx context.Context) error {
	root := strings.TrimSuffix(c.baseURL, "/api")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Message: "server not reachable, is talentflow serving?", Err: err}
	}
	return decodeJSON(resp, nil)
}

func (c *Client) ListJobs(ctx context.Context, q hiring.JobQuery) (hiring.Page[hiring.Job], error) {
	var page hiring.Page[hiring.Job]
	err := c.do(ctx, http.MethodGet, "/jobs", q.Values(), nil, &page)
	return page, err
}

func (c *Client) GetJob(ctx context.Context, id int64) (hiring.Job, error) {
	var j hiring.Job
	err := c.do(ctx, http.MethodGet, idPath("/jobs", id, ""), nil, nil, &j)
	return j, err
}

func (c *Client) CreateJob(ctx context.Context, in hiring.JobInput) (hiring.Job, error) {
	var j hiring.Job
	err := c.do(ctx, http.MethodPost, "/jobs", nil, in, &j)
	return j, err
}

func (c *Client) UpdateJob(ctx context.Context, id int64, p hiring.JobPatch) (hiring.Job, error) {
	var j hiring.Job
	err := c.do(ctx, http.MethodPatch, idPath("/jobs", id, ""), nil, p, &j)
	return j, err
}

func (c *Client) ReorderJob(ctx context.Context, id int64, req hiring.ReorderRequest) error {
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPatch, idPath("/jobs", id, "/reorder"), nil, req, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("reorder of job %d not acknowledged", id)
	}
	return nil
}

func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/jobs", id, ""), nil, nil, nil)
}

func (c *Client) ListCandidates(ctx context.Context, q hiring.CandidateQuery) (hiring.Page[hiring.Candidate], error) {
	var page hiring.Page[hiring.Candidate]
	err := c.do(ctx, http.MethodGet, "/candidates", q.Values(), nil, &page)
	return page, err
}

func (c *Client) GetCandidate(ctx context.Context, id int64) (hiring.Candidate, error) {
	var cand hiring.Candidate
	err := c.do(ctx, http.MethodGet, idPath("/candidates", id, ""), nil, nil, &cand)
	return cand, err
}

func (c *Client) CreateCandidate(ctx context.Context, in hiring.CandidateInput) (hiring.Candidate, error) {
	var cand hiring.Candidate
	err := c.do(ctx, http.MethodPost, "/candidates", nil, in, &cand)
	return cand, err
}

func (c *Client) UpdateCandidate(ctx context.Context, id int64, p hiring.CandidatePatch) (hiring.Candidate, error) {
	var cand hiring.Candidate
	err := c.do(ctx, http.MethodPatch, idPath("/candidates", id, ""), nil, p, &cand)
	return cand, err
}

func (c *Client) Timeline(ctx context.Context, candidateID int64) ([]hiring.TimelineEvent, error) {
	var events []hiring.TimelineEvent
	err := c.do(ctx, http.MethodGet, idPath("/candidates", candidateID, "/timeline"), nil, nil, &events)
	return events, err
}

func (c *Client) GetAssessment(ctx context.Context, jobID int64) (hiring.Assessment, error) {
	var a hiring.Assessment
	err := c.do(ctx, http.MethodGet, idPath("/assessments", jobID, ""), nil, nil, &a)
	return a, err
}

func (c *Client) PutAssessment(ctx context.Context, jobID int64, a hiring.Assessment) (hiring.Assessment, error) {
	var saved hiring.Assessment
	err := c.do(ctx, http.MethodPut, idPath("/assessments", jobID, ""), nil, a, &saved)
	return saved, err
}

func (c *Client) Submit(ctx context.Context, jobID int64, in hiring.SubmissionInput) (hiring.SubmitResult, error) {
	var res hiring.SubmitResult
	err := c.do(ctx, http.MethodPost, idPath("/assessments", jobID, "/submit"), nil, in, &res)
	return res, err
}

func (c *Client) Submissions(ctx context.Context, jobID int64) ([]hiring.Submission, error) {
	var subs []hiring.Submission
	err := c.do(ctx, http.MethodGet, idPath("/assessments", jobID, "/submissions"), nil, nil, &subs)
	return subs, err
}

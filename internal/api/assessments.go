package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kalambet/talentflow/internal/hiring"
)

//go:embed schema/assessment.schema.json
var assessmentSchemaJSON []byte

var assessmentSchema = mustSchema(assessmentSchemaJSON)

func mustSchema(b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("compiling embedded schema: %v", err))
	}
	return s
}

// checkAssessmentShape validates a raw assessment document against the
// embedded JSON Schema, before it is decoded.
func checkAssessmentShape(body []byte) error {
	result, err := assessmentSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("reading assessment: %w", err)
	}
	if result.Valid() {
		return nil
	}
	fields := make(map[string]string, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		fields[field] = desc.Description()
	}
	return &hiring.ValidationError{Fields: fields}
}

func handleGetAssessment(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseID(w, r, "jobId")
		if !ok {
			return
		}
		a, err := deps.Backend.GetAssessment(jobID)
		if err != nil {
			writeBackendError(w, err, "Assessment not found")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handlePutAssessment(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseID(w, r, "jobId")
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if err := checkAssessmentShape(body); err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		var a hiring.Assessment
		if err := json.Unmarshal(body, &a); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}

		saved, err := deps.Backend.PutAssessment(r.Context(), jobID, a)
		if err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleSubmit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseID(w, r, "jobId")
		if !ok {
			return
		}
		var in hiring.SubmissionInput
		if !decodeBody(w, r, &in) {
			return
		}
		res, err := deps.Backend.Submit(r.Context(), jobID, in)
		if err != nil {
			writeBackendError(w, err, "Assessment not found")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleListSubmissions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, ok := parseID(w, r, "jobId")
		if !ok {
			return
		}
		subs, err := deps.Backend.Submissions(jobID)
		if err != nil {
			writeBackendError(w, err, "Job not found")
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/bioopenmcp/biomcp/internal/errors"
	"github.com/bioopenmcp/biomcp/pkg/fastq"
	"github.com/bioopenmcp/biomcp/pkg/jobs"
	"github.com/bioopenmcp/biomcp/pkg/tools"
)

// API bundles the handlers that expose the tool service over REST.
type API struct {
	svc    *tools.Service
	finder fastq.Finder
	logger *zap.Logger
}

func NewAPI(svc *tools.Service, finder fastq.Finder, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{svc: svc, finder: finder, logger: logger}
}

// LaunchJob starts a background tool run.
//
//	POST /api/v1/tools/{tool}/jobs
func (a *API) LaunchJob(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")

	args := map[string]any{}
	if err := decodeBody(r.Body, &args); err != nil {
		respondWithError(w, r, apperrors.NewValidation("request body must be a JSON object"))
		return
	}

	res, err := a.svc.LaunchFromArgs(r.Context(), tool, args)
	if err != nil {
		respondWithError(w, r, mapServiceError(tool, err))
		return
	}
	writeJSON(w, res, http.StatusAccepted)
}

// ListJobs returns every tracked job.
//
//	GET /api/v1/jobs
func (a *API) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.svc.List(), http.StatusOK)
}

// JobStatus returns one job snapshot.
//
//	GET /api/v1/jobs/{jobID}
func (a *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	snap := a.svc.Status(jobID)
	if snap.Status == jobs.StatusNotFound {
		respondWithError(w, r, apperrors.NewNotFound("no job with id "+jobID))
		return
	}
	writeJSON(w, snap, http.StatusOK)
}

// StopJob terminates a running job.
//
//	POST /api/v1/jobs/{jobID}/stop
func (a *API) StopJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	res := a.svc.Stop(jobID)
	if res.Status == jobs.StatusNotFound {
		respondWithError(w, r, apperrors.NewNotFound("no job with id "+jobID))
		return
	}
	writeJSON(w, res, http.StatusOK)
}

// CleanupJobs removes job records. completed_only defaults to true so a
// bare call never drops records of jobs that are still running.
//
//	POST /api/v1/jobs/cleanup?completed_only=false
func (a *API) CleanupJobs(w http.ResponseWriter, r *http.Request) {
	completedOnly := true
	if raw := r.URL.Query().Get("completed_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, r, apperrors.NewValidation("completed_only must be a boolean"))
			return
		}
		completedOnly = parsed
	}
	writeJSON(w, a.svc.Cleanup(completedOnly), http.StatusOK)
}

// ListTools returns the catalog of known tools.
//
//	GET /api/v1/tools
func (a *API) ListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"tools": a.svc.Catalog().Names()}, http.StatusOK)
}

// ToolStatus probes one tool for presence and version.
//
//	GET /api/v1/tools/{tool}
func (a *API) ToolStatus(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")
	res, err := a.svc.Locate(r.Context(), tool)
	if err != nil {
		respondWithError(w, r, mapServiceError(tool, err))
		return
	}
	writeJSON(w, res, http.StatusOK)
}

// InstallTool attempts installation through the catalog strategies.
//
//	POST /api/v1/tools/{tool}/install
func (a *API) InstallTool(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")
	res, err := a.svc.Install(r.Context(), tool)
	if err != nil {
		respondWithError(w, r, mapServiceError(tool, err))
		return
	}
	writeJSON(w, res, http.StatusOK)
}

// FindFastq searches the configured directories for FASTQ files.
//
//	GET /api/v1/fastq?name=sample&dir=/data
func (a *API) FindFastq(w http.ResponseWriter, r *http.Request) {
	finder := a.finder
	if dir := r.URL.Query().Get("dir"); dir != "" {
		finder = fastq.Finder{SearchDirs: []string{dir}}
	}

	files, err := finder.Find(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(err, "fastq search failed"))
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, map[string]any{"files": files, "count": len(files)}, http.StatusOK)
}

// mapServiceError translates service-layer sentinels into typed HTTP
// errors; anything unrecognized is a validation failure because the
// service only fails synchronously on bad input or missing tools.
func mapServiceError(tool string, err error) error {
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return apperrors.NewUnknownTool(tool)
	case errors.Is(err, tools.ErrNotInstalled):
		return apperrors.NewToolNotInstalled(tool)
	case errors.Is(err, jobs.ErrDuplicateJob):
		return apperrors.NewConflict(err.Error())
	default:
		return apperrors.NewValidation(err.Error())
	}
}

func decodeBody(body io.Reader, target any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil && err != io.EOF {
		return err
	}
	return nil
}

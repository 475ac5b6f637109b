package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"casebridge/internal/campaign"
)

type Campaigns struct {
	Manager *campaign.Manager
	Runs    *campaign.RunLog
}

func (c *Campaigns) Register(m *mux.Router) {
	m.HandleFunc("/v1/campaigns", c.handleStart).Methods(http.MethodPost)
	m.HandleFunc("/v1/campaigns/runs", c.handleListRuns).Methods(http.MethodGet)
}

type startRequest struct {
	InputPath string `json:"inputPath"`
}

type startResponse struct {
	RunID      string `json:"runId"`
	ReportPath string `json:"reportPath"`
}

// handleStart validates the input synchronously and dispatches the batch to a
// background goroutine. The caller only ever learns the outcome from the run
// history.
func (c *Campaigns) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.InputPath == "" {
		http.Error(w, "missing inputPath", http.StatusBadRequest)
		return
	}

	runID, reportPath, err := c.Manager.Start(req.InputPath)
	if err != nil {
		var missing *campaign.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "missing_columns",
				"missing": missing.Missing,
				"found":   missing.Found,
			})
		case errors.Is(err, campaign.ErrMissingCredentials):
			http.Error(w, err.Error(), http.StatusPreconditionFailed)
		default:
			slog.Error("campaign start failed", "input", req.InputPath, "err", err)
			http.Error(w, ErrDependency, http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, startResponse{RunID: runID, ReportPath: reportPath})
}

func (c *Campaigns) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	runs, err := c.Runs.List()
	if err != nil {
		slog.Error("run history read failed", "err", err)
		http.Error(w, ErrDependency, http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []campaign.Summary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

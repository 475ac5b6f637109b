package campaign

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"casebridge/internal/observability"
	"casebridge/internal/util"
)

// ErrMissingCredentials refuses a run before anything is sent.
var ErrMissingCredentials = errors.New("campaign: provider credentials not configured")

// Manager dispatches campaign runs. Input validation (credentials, header
// columns) happens synchronously so the caller gets a structured error before
// any send; the batch itself runs detached, its completion visible only in the
// run log.
type Manager struct {
	Runner    *Runner
	Runs      *RunLog
	APIKey    string
	ReportDir string
	Delimiter rune
}

// Start validates and launches a background run for the given input file.
// It returns the run id and report path immediately.
func (m *Manager) Start(inputPath string) (runID, reportPath string, err error) {
	if m.APIKey == "" {
		return "", "", ErrMissingCredentials
	}

	src, err := OpenFile(inputPath, m.Delimiter)
	if err != nil {
		return "", "", err
	}

	runID = util.NewRunID()
	reportPath = filepath.Join(m.ReportDir, runID+"-report.csv")

	report, err := CreateReportFile(reportPath)
	if err != nil {
		src.Close()
		return "", "", err
	}

	go m.run(runID, inputPath, reportPath, src, report)
	return runID, reportPath, nil
}

// RunSync runs a campaign in the calling goroutine, for the CLI entry point.
func (m *Manager) RunSync(ctx context.Context, inputPath, reportPath string) (Summary, error) {
	if m.APIKey == "" {
		return Summary{}, ErrMissingCredentials
	}
	src, err := OpenFile(inputPath, m.Delimiter)
	if err != nil {
		return Summary{}, err
	}
	defer src.Close()

	report, err := CreateReportFile(reportPath)
	if err != nil {
		return Summary{}, err
	}
	defer report.Close()

	sum, err := m.Runner.Run(ctx, src, report)
	if err != nil {
		observability.CampaignRuns.WithLabelValues("error").Inc()
		return sum, err
	}
	sum.InputPath = inputPath
	sum.ReportPath = reportPath

	observability.CampaignRuns.WithLabelValues("ok").Inc()
	if m.Runs != nil {
		if logErr := m.Runs.Append(sum); logErr != nil {
			slog.Error("run history append failed", "run_id", sum.RunID, "err", logErr)
		}
	}
	return sum, nil
}

func (m *Manager) run(runID, inputPath, reportPath string, src *Source, report *Report) {
	defer src.Close()
	defer report.Close()
	defer func() {
		if rec := recover(); rec != nil {
			observability.CampaignRuns.WithLabelValues("panic").Inc()
			slog.Error("campaign run panic recovered", "run_id", runID, "panic", rec)
		}
	}()

	slog.Info("campaign run started", "run_id", runID, "input", inputPath)

	// background runs have no caller left to cancel them
	sum, err := m.Runner.Run(context.Background(), src, report)
	sum.RunID = runID
	sum.InputPath = inputPath
	sum.ReportPath = reportPath

	if err != nil {
		observability.CampaignRuns.WithLabelValues("error").Inc()
		slog.Error("campaign run failed", "run_id", runID, "err", err)
	} else {
		observability.CampaignRuns.WithLabelValues("ok").Inc()
	}

	if m.Runs != nil {
		if logErr := m.Runs.Append(sum); logErr != nil {
			slog.Error("run history append failed", "run_id", runID, "err", logErr)
		}
	}
}

package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"casebridge/internal/observability"
	"casebridge/internal/pricing"
	"casebridge/internal/provider"
	"casebridge/internal/util"
)

// TemplateSender is the provider call the runner needs.
type TemplateSender interface {
	SendTemplate(ctx context.Context, req provider.TemplateRequest) (provider.SendResult, int, []byte, error)
}

// Summary aggregates one run. Rows without a recipient are not counted at all.
type Summary struct {
	RunID             string    `json:"runId"`
	InputPath         string    `json:"inputPath,omitempty"`
	ReportPath        string    `json:"reportPath,omitempty"`
	RowsWithRecipient int       `json:"rowsWithRecipient"`
	SuccessCount      int       `json:"successCount"`
	ErrorCount        int       `json:"errorCount"`
	TotalCost         float64   `json:"totalCost"`
	Timestamp         time.Time `json:"timestamp"`
}

// Runner sends one templated message per input row, strictly in source order,
// one call at a time, never retrying. A failed send becomes an ERROR outcome
// for that row and the run moves on.
type Runner struct {
	Sender       TemplateSender
	Prices       pricing.Store
	DefaultPrice float64

	TemplateName     string
	TemplateLanguage string

	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker

	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return util.NowUTC()
}

// Run processes src to completion, streaming outcome rows into report.
func (r *Runner) Run(ctx context.Context, src *Source, report *Report) (Summary, error) {
	sum := Summary{RunID: util.NewRunID()}

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("campaign input row: %w", err)
		}

		if row.Recipient == "" {
			slog.Info("campaign row skipped, no recipient")
			continue
		}
		sum.RowsWithRecipient++

		out := r.sendRow(ctx, row)

		if out.Status == StatusOK {
			sum.SuccessCount++
			sum.TotalCost += out.Cost
		} else {
			sum.ErrorCount++
		}

		if err := report.Write(row, out); err != nil {
			return sum, fmt.Errorf("campaign report write: %w", err)
		}
	}

	sum.Timestamp = r.now()
	slog.Info("campaign run finished",
		"run_id", sum.RunID,
		"rows_with_recipient", sum.RowsWithRecipient,
		"ok", sum.SuccessCount,
		"error", sum.ErrorCount,
		"total_cost", sum.TotalCost,
	)
	return sum, nil
}

// sendRow attempts one send. Panics and transport errors are confined to the
// row: the outcome records them, the batch keeps going.
func (r *Runner) sendRow(ctx context.Context, row Row) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("campaign row panic recovered", "recipient", row.Recipient, "panic", rec)
			out = Outcome{Status: StatusError, ErrorText: fmt.Sprint(rec), SentAt: r.now()}
		}
	}()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return Outcome{Status: StatusError, ErrorText: err.Error(), SentAt: r.now()}
		}
	}

	req := provider.TemplateRequest{
		To:           util.NormalizePhone(row.Recipient),
		TemplateName: r.TemplateName,
		Language:     r.TemplateLanguage,
		Placeholders: row.Placeholders(),
	}

	start := time.Now()
	res, httpStatus, raw, err := r.send(ctx, req)
	observability.CampaignSendLatency.Observe(time.Since(start).Seconds())

	out = Outcome{
		HTTPStatus: httpStatus,
		MessageID:  res.MessageID,
		Cost:       res.PricePerMessage,
		SentAt:     r.now(),
	}

	if err == nil && httpStatus >= 200 && httpStatus < 300 {
		out.Status = StatusOK
		if out.Cost == 0 {
			out.Cost = r.fallbackCost(ctx)
		}
		observability.CampaignSends.WithLabelValues("ok", strconv.Itoa(httpStatus)).Inc()
		slog.Info("campaign send ok", "to", req.To, "message_id", out.MessageID, "cost", out.Cost)
		return out
	}

	out.Status = StatusError
	switch {
	case err != nil:
		out.ErrorText = err.Error()
	case len(raw) > 0:
		out.ErrorText = string(raw)
	default:
		out.ErrorText = "send failed"
	}
	observability.CampaignSends.WithLabelValues("error", strconv.Itoa(httpStatus)).Inc()
	slog.Error("campaign send failed", "to", req.To, "http_status", httpStatus, "err", out.ErrorText)
	return out
}

func (r *Runner) send(ctx context.Context, req provider.TemplateRequest) (provider.SendResult, int, []byte, error) {
	if r.Breaker == nil {
		return r.Sender.SendTemplate(ctx, req)
	}

	resAny, err := r.Breaker.Execute(func() (any, error) {
		res, httpStatus, raw, callErr := r.Sender.SendTemplate(ctx, req)
		if callErr != nil {
			return nil, sendError{err: callErr, httpStatus: httpStatus, raw: raw}
		}
		return sendResult{res: res, httpStatus: httpStatus, raw: raw}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return provider.SendResult{}, 0, nil, err
		}
		var se sendError
		if errors.As(err, &se) {
			return provider.SendResult{}, se.httpStatus, se.raw, se.err
		}
		return provider.SendResult{}, 0, nil, err
	}
	sr := resAny.(sendResult)
	return sr.res, sr.httpStatus, sr.raw, nil
}

// fallbackCost substitutes the last price observed from delivery receipts when
// the synchronous response carried none, then the configured default.
func (r *Runner) fallbackCost(ctx context.Context) float64 {
	if r.Prices != nil {
		if p := pricing.Current(ctx, r.Prices); p > 0 {
			return p
		}
	}
	return r.DefaultPrice
}

type sendResult struct {
	res        provider.SendResult
	httpStatus int
	raw        []byte
}

type sendError struct {
	err        error
	httpStatus int
	raw        []byte
}

func (e sendError) Error() string { return e.err.Error() }
func (e sendError) Unwrap() error { return e.err }

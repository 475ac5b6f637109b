package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"casebridge/internal/campaign"
	"casebridge/internal/config"
	"casebridge/internal/logging"
	"casebridge/internal/pricing"
	"casebridge/internal/provider"
)

func main() {
	inputPath := flag.String("input", "campaign.csv", "campaign input CSV (';' delimited)")
	reportPath := flag.String("report", "campaign-report.csv", "detailed report output path")
	flag.Parse()

	cfg := config.LoadCampaign()
	logging.Init("campaign", cfg.LogFormat)

	ctx := context.Background()

	prices, err := pricing.Open(ctx, pricing.Options{
		Backend:       cfg.PriceBackend,
		FilePath:      cfg.PriceFilePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		DBDSN:         cfg.DBDSN,
	})
	if err != nil {
		slog.Error("price store init failed", "err", err)
		os.Exit(1)
	}

	providerClient := &provider.Client{
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
		Sender:  cfg.WhatsAppSender,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}

	manager := &campaign.Manager{
		Runner: &campaign.Runner{
			Sender:           providerClient,
			Prices:           prices,
			DefaultPrice:     cfg.DefaultPrice,
			TemplateName:     cfg.TemplateName,
			TemplateLanguage: cfg.TemplateLanguage,
			Limiter:          rate.NewLimiter(rate.Limit(cfg.SendRPS), cfg.SendBurst),
			Breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        "provider-send",
				MaxRequests: 3,
				Timeout:     20 * time.Second,
				ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
			}),
		},
		Runs:      campaign.NewRunLog(cfg.RunHistoryPath),
		APIKey:    cfg.ProviderAPIKey,
		Delimiter: campaign.DefaultDelimiter,
	}

	sum, err := manager.RunSync(ctx, *inputPath, *reportPath)
	if err != nil {
		slog.Error("campaign run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("campaign summary",
		"run_id", sum.RunID,
		"rows_with_recipient", sum.RowsWithRecipient,
		"ok", sum.SuccessCount,
		"error", sum.ErrorCount,
		"total_cost", sum.TotalCost,
		"report", *reportPath,
	)
}

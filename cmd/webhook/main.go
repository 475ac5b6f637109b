package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"casebridge/internal/campaign"
	"casebridge/internal/config"
	"casebridge/internal/contacts"
	"casebridge/internal/correlator"
	"casebridge/internal/crm"
	"casebridge/internal/history"
	"casebridge/internal/httpserver"
	"casebridge/internal/logging"
	"casebridge/internal/media"
	"casebridge/internal/observability"
	"casebridge/internal/pricing"
	"casebridge/internal/provider"
	"casebridge/internal/service"
)

func main() {
	cfg := config.LoadWebhook()
	logging.Init("webhook", cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fields := crm.FieldMapping{
		Version:       cfg.CRMMappingVersion,
		PhoneField:    cfg.CRMPhoneField,
		NameField:     cfg.CRMNameField,
		CompanyField:  cfg.CRMCompanyField,
		RecordTypeID:  cfg.CRMRecordTypeID,
		Origin:        cfg.CRMTicketOrigin,
		InitialStatus: cfg.CRMInitialStatus,
		Static: map[string]string{
			"TypeDeDeclaration__c": "Complément d'information",
			"Type":                 "Déclaration Maladie",
		},
	}
	if err := fields.Validate(); err != nil {
		slog.Error("crm field mapping invalid", "err", err)
		os.Exit(1)
	}

	crmClient := &crm.Client{
		Creds: crm.Credentials{
			AuthURL:       cfg.CRMAuthURL,
			ClientID:      cfg.CRMClientID,
			ClientSecret:  cfg.CRMClientSecret,
			Username:      cfg.CRMUsername,
			Password:      cfg.CRMPassword,
			SecurityToken: cfg.CRMSecurityToken,
		},
		Fields: fields,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}

	providerClient := &provider.Client{
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
		Sender:  cfg.WhatsAppSender,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}

	fetcher := &media.Fetcher{
		APIKey:  cfg.ProviderAPIKey,
		BaseURL: cfg.ProviderBaseURL,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}

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

	contactTable := contacts.Empty()
	if cfg.ContactsPath != "" {
		contactTable, err = contacts.LoadCSVFile(cfg.ContactsPath, campaign.DefaultDelimiter)
		if err != nil {
			slog.Error("contacts load failed", "path", cfg.ContactsPath, "err", err)
			os.Exit(1)
		}
		slog.Info("contacts loaded", "path", cfg.ContactsPath, "entries", contactTable.Len())
	}

	observability.Register(prometheus.DefaultRegisterer)

	hist := history.New()
	bridge := &service.Bridge{
		History:     hist,
		Resolver:    correlator.New(hist, crmClient, cfg.CaseWindow),
		CRM:         crmClient,
		Media:       fetcher,
		Prices:      prices,
		Contacts:    contactTable,
		ResetStatus: cfg.CRMResetStatus,
		AckText:     cfg.AckText,
	}
	if cfg.AckText != "" {
		bridge.AckSender = func(ctx context.Context, to, body string) error {
			_, _, _, err := providerClient.SendText(ctx, to, body)
			return err
		}
	}

	manager := &campaign.Manager{
		Runner: &campaign.Runner{
			Sender:           providerClient,
			Prices:           prices,
			DefaultPrice:     cfg.DefaultPrice,
			TemplateName:     cfg.TemplateName,
			TemplateLanguage: cfg.TemplateLanguage,
			Limiter:          rate.NewLimiter(rate.Limit(cfg.SendRPS), cfg.SendBurst),
			Breaker:          newSendBreaker(),
		},
		Runs:      campaign.NewRunLog(cfg.RunHistoryPath),
		ReportDir: cfg.ReportDir,
		Delimiter: campaign.DefaultDelimiter,
	}
	if cfg.CampaignCredentialsPresent() {
		manager.APIKey = cfg.ProviderAPIKey
	}

	s := httpserver.New()
	(&httpserver.Webhook{Bridge: bridge}).Register(s.Mux)
	(&httpserver.Campaigns{Manager: manager, Runs: manager.Runs}).Register(s.Mux)
	s.Mux.HandleFunc("/healthz", httpserver.Healthz())
	s.Mux.HandleFunc("/readyz", httpserver.Readyz(2*time.Second, func(ctx context.Context) error {
		_, err := prices.Get(ctx)
		return err
	}))
	s.Mux.Use(httpserver.Metrics(observability.HTTPRequests))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}
	go func() {
		slog.Info("metrics listening", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpserver.Logging(s.Mux),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("webhook shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	slog.Info("webhook listening", "port", cfg.Port, "case_window", cfg.CaseWindow.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("webhook server failed", "err", err)
		os.Exit(1)
	}
}

func newSendBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider-send",
		MaxRequests: 3,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 10 },
	})
}

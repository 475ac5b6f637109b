package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_http_requests_total", Help: "HTTP requests"},
		[]string{"route", "status"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_webhook_events_total", Help: "Inbound webhook events by kind"},
		[]string{"kind"},
	)
	TicketResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_ticket_resolutions_total", Help: "Ticket resolve outcomes"},
		[]string{"result"},
	)
	MediaDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_media_downloads_total", Help: "Media download outcomes"},
		[]string{"result"},
	)
	PriceUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_price_updates_total", Help: "Delivery receipt price updates"},
		[]string{"result"},
	)
	CampaignSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campaign_send_total", Help: "Campaign send outcomes"},
		[]string{"result", "http_status"},
	)
	CampaignSendLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "campaign_send_latency_seconds", Help: "Template send latency"},
	)
	CampaignRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "campaign_runs_total", Help: "Campaign run outcomes"},
		[]string{"result"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequests,
		WebhookEvents,
		TicketResolutions,
		MediaDownloads,
		PriceUpdates,
		CampaignSends,
		CampaignSendLatency,
		CampaignRuns,
	)
}

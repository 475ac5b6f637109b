package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type WebhookConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`

	// messaging provider
	ProviderAPIKey  string `envconfig:"PROVIDER_API_KEY" required:"true"`
	ProviderBaseURL string `envconfig:"PROVIDER_BASE_URL" required:"true"`
	WhatsAppSender  string `envconfig:"WHATSAPP_SENDER"`

	// conversation correlation
	CaseWindow time.Duration `envconfig:"CASE_WINDOW" default:"2h"`

	// CRM (ticketing backend)
	CRMAuthURL       string `envconfig:"CRM_AUTH_URL" default:"https://login.salesforce.com/services/oauth2/token"`
	CRMClientID      string `envconfig:"CRM_CLIENT_ID" required:"true"`
	CRMClientSecret  string `envconfig:"CRM_CLIENT_SECRET" required:"true"`
	CRMUsername      string `envconfig:"CRM_USERNAME" required:"true"`
	CRMPassword      string `envconfig:"CRM_PASSWORD" required:"true"`
	CRMSecurityToken string `envconfig:"CRM_SECURITY_TOKEN" required:"true"`

	// CRM field mapping, validated at startup
	CRMMappingVersion string `envconfig:"CRM_MAPPING_VERSION" default:"v1"`
	CRMPhoneField     string `envconfig:"CRM_PHONE_FIELD" default:"Telephone__c"`
	CRMNameField      string `envconfig:"CRM_NAME_FIELD" default:"Nom__c"`
	CRMCompanyField   string `envconfig:"CRM_COMPANY_FIELD"`
	CRMRecordTypeID   string `envconfig:"CRM_RECORD_TYPE_ID" required:"true"`
	CRMTicketOrigin   string `envconfig:"CRM_TICKET_ORIGIN" default:"Whatsapp"`
	CRMInitialStatus  string `envconfig:"CRM_INITIAL_STATUS" default:"Nouvelle demande"`
	CRMResetStatus    string `envconfig:"CRM_RESET_STATUS"`

	// optional acknowledgement after a successful attachment
	AckText string `envconfig:"ACK_TEXT"`

	// recipient table (identity -> display name / company)
	ContactsPath string `envconfig:"CONTACTS_PATH"`

	// price reconciliation store
	PriceBackend  string `envconfig:"PRICE_BACKEND" default:"file"`
	PriceFilePath string `envconfig:"PRICE_FILE_PATH" default:"data/provider_price.json"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	DBDSN         string `envconfig:"DB_DSN"`

	// campaign trigger on this server
	TemplateName     string  `envconfig:"TEMPLATE_NAME" default:"complement_requis_v3"`
	TemplateLanguage string  `envconfig:"TEMPLATE_LANGUAGE" default:"fr"`
	DefaultPrice     float64 `envconfig:"DEFAULT_PRICE_PER_MESSAGE" default:"0"`
	ReportDir        string  `envconfig:"REPORT_DIR" default:"data/reports"`
	RunHistoryPath   string  `envconfig:"RUN_HISTORY_PATH" default:"data/campaign_runs.jsonl"`
	SendRPS          float64 `envconfig:"SEND_RPS" default:"5"`
	SendBurst        int     `envconfig:"SEND_BURST" default:"1"`
}

type CampaignConfig struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	ProviderAPIKey  string `envconfig:"PROVIDER_API_KEY" required:"true"`
	ProviderBaseURL string `envconfig:"PROVIDER_BASE_URL" required:"true"`
	WhatsAppSender  string `envconfig:"WHATSAPP_SENDER" required:"true"`

	TemplateName     string  `envconfig:"TEMPLATE_NAME" default:"complement_requis_v3"`
	TemplateLanguage string  `envconfig:"TEMPLATE_LANGUAGE" default:"fr"`
	DefaultPrice     float64 `envconfig:"DEFAULT_PRICE_PER_MESSAGE" default:"0"`

	PriceBackend  string `envconfig:"PRICE_BACKEND" default:"file"`
	PriceFilePath string `envconfig:"PRICE_FILE_PATH" default:"data/provider_price.json"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	DBDSN         string `envconfig:"DB_DSN"`

	RunHistoryPath string  `envconfig:"RUN_HISTORY_PATH" default:"data/campaign_runs.jsonl"`
	SendRPS        float64 `envconfig:"SEND_RPS" default:"5"`
	SendBurst      int     `envconfig:"SEND_BURST" default:"1"`
}

func (c WebhookConfig) CampaignCredentialsPresent() bool {
	return c.ProviderAPIKey != "" && c.WhatsAppSender != ""
}

// LoadWebhook reads a local .env when present, then the environment.
func LoadWebhook() WebhookConfig {
	_ = godotenv.Load()
	var cfg WebhookConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadCampaign() CampaignConfig {
	_ = godotenv.Load()
	var cfg CampaignConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

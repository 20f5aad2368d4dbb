package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"buraq/internal/core"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string
	DataDir     string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSpreadsheetTitle   string
	GoogleWorksheetName      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Ledger
	Schema         core.Schema
	ExportFilename string
	LedgerCacheTTL time.Duration
	FetchTimeout   time.Duration
	ReadyWindow    time.Duration

	// Audit trail
	AuditDBPath  string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

const (
	BackendMemory = "memory"
	BackendSheets = "sheets"
)

func Load() *Config {
	def := core.DefaultSchema()
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		DataDir:     getEnv("DATA_DIR", "./data"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSpreadsheetTitle:   getEnv("GOOGLE_SPREADSHEET_TITLE", "حسابات الجمعية 2026"),
		GoogleWorksheetName:      getEnv("GOOGLE_WORKSHEET_NAME", "تجميع مدخلات"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		Schema: core.Schema{
			AmountColumn:        getEnv("LEDGER_AMOUNT_COLUMN", def.AmountColumn),
			MonthColumn:         getEnv("LEDGER_MONTH_COLUMN", def.MonthColumn),
			YearColumn:          getEnv("LEDGER_YEAR_COLUMN", def.YearColumn),
			PrimaryColumn:       getEnv("LEDGER_PRIMARY_COLUMN", def.PrimaryColumn),
			SecondaryColumn:     getEnv("LEDGER_SECONDARY_COLUMN", def.SecondaryColumn),
			CurrencyToken:       getEnv("LEDGER_CURRENCY", def.CurrencyToken),
			GeneralCharityLabel: getEnv("LEDGER_GENERAL_CHARITY_LABEL", def.GeneralCharityLabel),
			AdminShareLabel:     getEnv("LEDGER_ADMIN_SHARE_LABEL", def.AdminShareLabel),
		},
		ExportFilename: getEnv("EXPORT_FILENAME", "تبرعات_الجمعية.csv"),
		LedgerCacheTTL: getEnvDuration("LEDGER_CACHE_TTL", 0),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		ReadyWindow:    getEnvDuration("READY_WINDOW", time.Minute),

		AuditDBPath:  getEnv("AUDIT_DB_PATH", "./data/buraq.db"),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "buraq"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "load_reports"),
	}
}

// Validate reports every problem at once rather than stopping at the first.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using memory backend")
		}
	case BackendSheets:
		errors = append(errors, c.validateSheets()...)
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSheets))
	}

	if err := c.Schema.Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if strings.TrimSpace(c.ExportFilename) == "" {
		errors = append(errors, "export filename cannot be empty")
	}
	if c.LedgerCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid ledger cache TTL %v: must not be negative", c.LedgerCacheTTL))
	}
	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 5 minutes", c.FetchTimeout))
	}

	errors = append(errors, c.validateAMQP()...)

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the audit worker cannot run without.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the audit worker")
	}
	if c.AuditDBPath == "" {
		errors = append(errors, "audit database path is required for the audit worker")
	}
	errors = append(errors, c.validateAMQP()...)
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateSheets() []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" && c.GoogleSpreadsheetTitle == "" {
		errors = append(errors, "either GOOGLE_SPREADSHEET_ID or GOOGLE_SPREADSHEET_TITLE is required when using sheets backend")
	}
	if c.GoogleWorksheetName == "" {
		errors = append(errors, "Google worksheet name is required when using sheets backend")
	}

	hasJSON := c.GoogleServiceAccountJSON != ""
	hasFile := c.GoogleServiceAccountFile != ""
	if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
	}
	if hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errors
}

func (c *Config) validateAMQP() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

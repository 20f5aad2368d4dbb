package backend

import (
	"errors"
	"fmt"

	"buraq/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type: t,

		SpreadsheetID:      appConfig.GoogleSpreadsheetID,
		SpreadsheetTitle:   appConfig.GoogleSpreadsheetTitle,
		WorksheetName:      appConfig.GoogleWorksheetName,
		ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		ServiceAccountFile: appConfig.GoogleServiceAccountFile,

		DataDirectory: appConfig.DataDir,

		AuditDBPath:  appConfig.AuditDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SheetsBackend {
		if c.SpreadsheetID == "" && c.SpreadsheetTitle == "" {
			return errors.New("spreadsheet ID or title is required for sheets backend")
		}
		if c.WorksheetName == "" {
			return errors.New("worksheet name is required for sheets backend")
		}
	}
	return nil
}

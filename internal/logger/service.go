package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/pgdemo/internal/config"
)

// LoggerService owns the optional New Relic application.
//
// A nil *LoggerService, or one without an application, means New Relic is
// off; every method is safe to call either way.
type LoggerService struct {
	nrApp *newrelic.Application
}

// connectTimeout bounds how long a run waits for the agent to connect.
const connectTimeout = 5 * time.Second

// NewLoggerService starts the New Relic agent when a license key is set.
func NewLoggerService(cfg *config.Config) (*LoggerService, error) {
	service := &LoggerService{}

	if !cfg.NewRelic.Enabled() {
		return service, nil
	}

	opts := []newrelic.ConfigOption{
		newrelic.ConfigAppName(ServiceName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.NewRelic.AppLogForwardingEnabled),
		newrelic.ConfigDistributedTracerEnabled(cfg.NewRelic.DistributedTracingEnabled),
	}
	if cfg.NewRelic.DebugLogging {
		opts = append(opts, newrelic.ConfigDebugLogger(os.Stderr))
	}

	app, err := newrelic.NewApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize New Relic: %w", err)
	}

	// A short-lived CLI has to wait, otherwise the run is over before the
	// agent has connected and nothing is reported.
	if err := app.WaitForConnection(connectTimeout); err != nil {
		return nil, fmt.Errorf("failed to connect to New Relic: %w", err)
	}

	service.nrApp = app
	return service, nil
}

// GetApplication returns the New Relic application or nil.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.nrApp
}

// Shutdown flushes pending New Relic data.
func (s *LoggerService) Shutdown() {
	if app := s.GetApplication(); app != nil {
		app.Shutdown(10 * time.Second)
	}
}

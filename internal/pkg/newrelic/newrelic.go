package newrelic

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
)

// InitNewRelic initializes the New Relic application; nil means disabled
func InitNewRelic(configs *models.Config) *newrelic.Application {
	if !configs.NewRelic.Enabled || configs.NewRelic.LicenseKey == "" {
		logger.Info("New Relic is disabled or license key not provided")
		return nil
	}

	logger.Info("Initializing New Relic",
		logger.String("app_name", configs.NewRelic.AppName),
		logger.Bool("forward_logs", configs.NewRelic.ForwardLogs))

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(configs.NewRelic.AppName),
		newrelic.ConfigLicense(configs.NewRelic.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(configs.NewRelic.ForwardLogs),
		newrelic.ConfigAppLogDecoratingEnabled(true),
	)
	if err != nil {
		logger.Warn("Failed to initialize New Relic, continuing without New Relic",
			logger.Err(err))
		return nil
	}

	return nrApp
}

// FromContext returns the transaction carried by ctx, or nil
func FromContext(ctx context.Context) *newrelic.Transaction {
	return newrelic.FromContext(ctx)
}

// AddTransactionAttribute adds a custom attribute when txn is non-nil
func AddTransactionAttribute(txn *newrelic.Transaction, key string, value interface{}) {
	if txn == nil {
		return
	}
	txn.AddAttribute(key, value)
}

// StartSegment opens a segment on the transaction in ctx and returns its end function
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}

// StartBackgroundTransaction starts a non-web transaction and attaches it to ctx.
// With a nil app it returns ctx unchanged and a no-op end function.
func StartBackgroundTransaction(ctx context.Context, app *newrelic.Application, name string) (context.Context, func(error)) {
	if app == nil {
		return ctx, func(error) {}
	}
	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), func(err error) {
		if err != nil {
			txn.NoticeError(err)
		}
		txn.End()
	}
}

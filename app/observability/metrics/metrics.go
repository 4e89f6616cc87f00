package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RegisterRequestsTotal   metric.Int64Counter
	LoginAttemptsTotal      metric.Int64Counter
	PasswordResetsTotal     metric.Int64Counter
	EmailVerificationsTotal metric.Int64Counter
	NotificationErrorsTotal metric.Int64Counter
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	DbQueryDurationSeconds  metric.Float64Histogram
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Install the provider (tracer.InitTracingAndMetrics) before calling it.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("go-account-api")
		m := &AppMetrics{}

		m.RegisterRequestsTotal = mustCounter(meter, "register_requests_total", "Total number of completed registrations", "{request}")
		m.LoginAttemptsTotal = mustCounter(meter, "login_attempts_total", "Login attempts by outcome", "{attempt}")
		m.PasswordResetsTotal = mustCounter(meter, "password_resets_total", "Password reset requests and completions", "{reset}")
		m.EmailVerificationsTotal = mustCounter(meter, "email_verifications_total", "Email verification attempts by outcome", "{attempt}")
		m.NotificationErrorsTotal = mustCounter(meter, "notification_errors_total", "Notifications that failed to send", "{error}")
		m.HTTPRequestsTotal = mustCounter(meter, "http_requests_total", "HTTP requests by route and status", "{request}")
		m.DbQueryErrorsTotal = mustCounter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")

		var err error
		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

// Get returns the instruments, creating them against the current global provider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

package metrics

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	SignUpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_signups_total",
			Help: "Total number of sign-up attempts by outcome",
		},
		[]string{"outcome"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_email_verifications_total",
			Help: "Total number of email verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_logins_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotifierFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_notifier_failures_total",
			Help: "Total number of verification emails that could not be delivered",
		},
		[]string{"reason"},
	)

	MailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lostfound_mail_queue_depth",
			Help: "Number of verification emails waiting to be sent",
		},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lostfound_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lostfound_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Outcome maps a boolean result to an outcome label.
func Outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// Middleware records request duration per matched route and status class.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()

		c.Next()

		HTTPRequestsInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusClass := fmt.Sprintf("%dxx", c.Writer.Status()/100)
		HTTPRequestDurationSeconds.WithLabelValues(c.Request.Method, route, statusClass).
			Observe(time.Since(start).Seconds())
	}
}

package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs the outcome of one API call. Entries are debug level so
// library callers only see them when they opt in.
func LogRequest(l Logger, operation, method, url string, statusCode int, duration time.Duration) {
	outcome := "success"
	switch {
	case statusCode == 0:
		outcome = "transport_error"
	case statusCode >= 500:
		outcome = "server_error"
	case statusCode >= 400:
		outcome = "client_error"
	}

	l.DebugWithFields("API request completed", map[string]interface{}{
		"operation":   operation,
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"outcome":     outcome,
		"duration_ms": duration.Milliseconds(),
	})
}

// LogCrawlProgress logs a crawl status poll
func LogCrawlProgress(l Logger, jobID, status string, completed, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"job_id":     jobID,
		"status":     status,
		"completed":  completed,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Crawl progress")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

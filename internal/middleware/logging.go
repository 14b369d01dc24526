// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusRecorder captures the status code the wrapped handler writes so the
// request log can carry it. Handlers that never call WriteHeader get the
// implicit 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer so http.ResponseController can reach
// the hijacker during the websocket upgrade.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// LogMiddleware logs method, path, response status and duration of every
// HTTP request.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

// LogWebSocketConnect records a player's connection once the upgrade has
// succeeded and the player id is assigned.
func LogWebSocketConnect(logger *logrus.Logger, playerID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"remote":    remoteAddr,
	}).Info("Player connected")
}

// LogWebSocketDisconnect records the end of a player's connection after the
// read pump exits and room cleanup has run.
func LogWebSocketDisconnect(logger *logrus.Logger, playerID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"remote":    remoteAddr,
	}).Info("Player disconnected")
}

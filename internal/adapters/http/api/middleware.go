package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/raffle/pkg/metrics"
)

// MetricsMiddleware records request count and latency for endpoint. Error
// answers are also counted under the engine error code the handler wrote,
// so 409 no_data and 409 submission_pending stay distinguishable.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status,
			float64(time.Since(start).Nanoseconds())/1e6)
		if rec.status < http.StatusBadRequest {
			return
		}

		class := rec.errorClass()
		metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
		metrics.RecordErrorByType(class, severity(rec.status))
	}
}

func severity(status int) string {
	if status >= http.StatusInternalServerError {
		return "high"
	}
	return "medium"
}

// statusRecorder remembers the status and error code of one answer.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

// errorClass is the engine code of the answer, or its status family when
// the handler wrote none.
func (rec *statusRecorder) errorClass() string {
	switch {
	case rec.code != "":
		return rec.code
	case rec.status >= http.StatusInternalServerError:
		return "server_error"
	default:
		return "client_error"
	}
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// tagErrorCode hands code to an enclosing MetricsMiddleware, if any.
func tagErrorCode(w http.ResponseWriter, code string) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.code = code
	}
}

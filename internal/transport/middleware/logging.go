package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxLoggedBody caps how much of a request body ends up in the log.
const maxLoggedBody = 2048

// sensitiveFields are masked in logged JSON bodies. The API carries
// Telegram initData signatures and JWT pairs, none of which belong in
// logs.
var sensitiveFields = []string{
	"initdata",
	"init_data",
	"hash",
	"signature",
	"token",
	"access_token",
	"refresh_token",
	"authorization",
	"secret",
	"credential",
}

func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"body", requestBodyForLog(r),
			)

			ww := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			status := ww.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_bytes", ww.written,
			)
		})
	}
}

// statusWriter records the status code and byte count without buffering
// the response itself.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

// requestBodyForLog returns a loggable rendition of the request body.
// File uploads are summarized, JSON bodies are masked field by field,
// everything else is skipped.
func requestBodyForLog(r *http.Request) string {
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return "[multipart upload]"
	}
	if !strings.Contains(contentType, "json") {
		return "[" + contentType + "]"
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	if err != nil {
		return "[unreadable]"
	}
	rest, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), bytes.NewReader(rest)))

	if len(bodyBytes) > maxLoggedBody {
		return "[truncated]"
	}

	var parsed interface{}
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "[malformed json]"
	}

	masked, err := json.Marshal(maskSensitive(parsed))
	if err != nil {
		return "[unloggable]"
	}
	return string(masked)
}

func maskSensitive(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveKey(key) {
				out[key] = "[MASKED]"
				continue
			}
			out[key] = maskSensitive(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskSensitive(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

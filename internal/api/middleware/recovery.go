package middleware

import (
	"log/slog"
	"net/http"

	"github.com/codebreakergame/codebreaker-go/internal/api/response"
)

// Recovery creates panic recovery middleware that returns a JSON 500
// instead of tearing down the connection
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in http handler",
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
					)
					response.Error(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

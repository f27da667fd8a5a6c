package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// UnexpectedErrorMessage is the body text of every unclassified 500.
const UnexpectedErrorMessage = "An unexpected error occurred. Please try again."

// Recoverer turns a handler panic into the generic 500 error body and logs
// the panic with its stack.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http uses this to abort a response; let it through
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Stack("stack"),
				)
				WriteError(w, http.StatusInternalServerError, UnexpectedErrorMessage)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package server

import (
	"net/http"
	"runtime"

	"github.com/netterhq/netter/logger"
)

// recoverMiddleware wraps next so a genuinely unexpected panic inside the
// transport adaptation layer (not the DSL-level fatalAbort, which
// executeRoute already contains) is logged with a stack trace and answered
// with a 500 instead of taking the whole process down, adapted from the
// teacher's gases/recover.go stack-capture pattern.
func recoverMiddleware(log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				log.Error("panic recovered while serving request", map[string]interface{}{
					"panic": rec,
					"stack": string(buf[:n]),
					"path":  r.URL.Path,
					"method": r.Method,
				})
				http.Error(rw, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next(rw, r)
	}
}

package httpx

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain wraps h with the given middlewares. The first middleware listed is the
// outermost, so it sees the request first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// CORSConfig describes the headers emitted by CORS.
type CORSConfig struct {
	AllowOrigin   string
	AllowMethods  string
	AllowHeaders  string
	ExposeHeaders string

	// Preflight is called for OPTIONS requests before the 200 is written,
	// allowing callers to attach discovery headers.
	Preflight func(w http.ResponseWriter, r *http.Request)
}

// CORS sets permissive cross-origin headers on every response and answers
// preflight requests directly.
func CORS(cfg CORSConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", cfg.AllowOrigin)
			h.Set("Access-Control-Allow-Methods", cfg.AllowMethods)
			h.Set("Access-Control-Allow-Headers", cfg.AllowHeaders)
			if cfg.ExposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", cfg.ExposeHeaders)
			}

			if r.Method == http.MethodOptions {
				if cfg.Preflight != nil {
					cfg.Preflight(w, r)
				}
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package middlewarectx содержит middleware для HTTP‑сервера:
// ограничение частоты запросов и разрешение cross-origin запросов
// для фронтенда сервиса.
package middlewarectx

import (
	"net/http"
	"slices"
)

// CORSMiddleware возвращает middleware, которое выставляет CORS-заголовки
// для источников из списка allowedOrigins. Пустой список разрешает все
// источники. Preflight-запросы (OPTIONS) завершаются сразу со статусом 204.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				switch {
				case len(allowedOrigins) == 0:
					w.Header().Set("Access-Control-Allow-Origin", "*")
				case slices.Contains(allowedOrigins, origin):
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middlewarectx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		method         string
		expectedCode   int
		expectedOrigin string
	}{
		{
			name:           "пустой список разрешает все источники",
			allowedOrigins: nil,
			origin:         "https://visaslot.example.com",
			method:         http.MethodGet,
			expectedCode:   http.StatusOK,
			expectedOrigin: "*",
		},
		{
			name:           "разрешённый источник получает эхо",
			allowedOrigins: []string{"https://visaslot.example.com"},
			origin:         "https://visaslot.example.com",
			method:         http.MethodGet,
			expectedCode:   http.StatusOK,
			expectedOrigin: "https://visaslot.example.com",
		},
		{
			name:           "неразрешённый источник не получает заголовок",
			allowedOrigins: []string{"https://visaslot.example.com"},
			origin:         "https://evil.example.com",
			method:         http.MethodGet,
			expectedCode:   http.StatusOK,
			expectedOrigin: "",
		},
		{
			name:           "preflight завершается без вызова обработчика",
			allowedOrigins: []string{"https://visaslot.example.com"},
			origin:         "https://visaslot.example.com",
			method:         http.MethodOptions,
			expectedCode:   http.StatusNoContent,
			expectedOrigin: "https://visaslot.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddleware(tt.allowedOrigins)(okHandler)

			req := httptest.NewRequest(tt.method, "/api/users", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.origin != "" {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Stripe-Signature")
			}
		})
	}
}

func TestCORSMiddleware_NoOriginHeader(t *testing.T) {
	handler := CORSMiddleware([]string{"https://visaslot.example.com"})(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

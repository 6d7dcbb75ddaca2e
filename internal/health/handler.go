// Package health содержит HTTP handler для health check
package health

import (
	"encoding/json"
	"net/http"
)

// Handler возвращает HTTP handler для health check endpoint.
// Возвращает 200 OK с JSON телом {"status":"ok"} если readiness функция не
// указана или возвращает true, иначе 503 Service Unavailable.
func Handler(readiness func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if readiness != nil && !readiness() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

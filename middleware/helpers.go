package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeError отдает ошибку в том же формате, что и handlers: {"message": ...}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		slog.Error("failed to write middleware error response", slog.Any("error", err))
	}
}

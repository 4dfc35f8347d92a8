package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应 {"error": ...}
func RespondError(w http.ResponseWriter, status int, message string) {
	respondField(w, status, "error", message)
}

// RespondMessage 发送成功提示 {"message": ...}
func RespondMessage(w http.ResponseWriter, status int, message string) {
	respondField(w, status, "message", message)
}

func respondField(w http.ResponseWriter, status int, key, value string) {
	RespondJSON(w, status, map[string]string{key: value})
}

package handler

import (
	"net/http"

	"timer-sync-server/pkg/response"
)

const serviceName = "timer-sync-server"

func Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func Root(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "Timer Sync Server",
		"endpoints": map[string]string{
			"/sync":        "POST, GET (bearer)",
			"/sync/ticket": "POST (bearer)",
			"/ws":          "GET (ticket or bearer)",
			"/health":      "GET",
		},
	})
}

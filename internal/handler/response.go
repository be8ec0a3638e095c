package handler

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

const (
	msgUserNotFound = "User not found"
	msgInternal     = "An unexpected error occurred"
)

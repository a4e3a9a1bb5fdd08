package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/knguessan/moodlewatch/internal/domain/model"
)

// writeJSON marshals v and writes it with the given status code. If marshaling
// fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status"`
}

// CreateUserRequest is the JSON body for the create user endpoint.
type CreateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UserResponse is the JSON representation of a roster entry. The encrypted
// credential is never exposed.
type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Connected bool   `json:"platform_connected"`
	CreatedAt string `json:"created_at"`
}

// ConnectPlatformRequest is the JSON body for the connect endpoint.
type ConnectPlatformRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PlatformStatusResponse reports the state of the user's platform connection.
type PlatformStatusResponse struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

// AssignmentResponse is the JSON representation of one scraped assignment.
type AssignmentResponse struct {
	Title   string `json:"title"`
	Course  string `json:"course"`
	DueDate string `json:"due_date"`
	Link    string `json:"link"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Connected: u.HasPlatformAccount(),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAssignmentResponse(a model.Assignment) AssignmentResponse {
	return AssignmentResponse{
		Title:   a.Title,
		Course:  a.Course,
		DueDate: a.DueDate,
		Link:    a.Link,
	}
}

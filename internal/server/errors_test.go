package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/localrivet/reporeader/internal/errortypes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)
	return c, w
}

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		code       string
		message    string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "basic error",
			status:     http.StatusBadRequest,
			code:       "BAD_REQUEST",
			message:    "Invalid input",
			err:        errors.New("test error"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "nil error",
			status:     http.StatusInternalServerError,
			code:       "INTERNAL_ERROR",
			message:    "Something went wrong",
			err:        nil,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			writeErrorResponse(c, tt.status, tt.code, tt.message, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("writeErrorResponse() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if !c.IsAborted() {
				t.Error("Expected request to be aborted")
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Errorf("Failed to parse response: %v", err)
				return
			}

			if resp.Code != tt.wantCode {
				t.Errorf("writeErrorResponse() code = %v, want %v", resp.Code, tt.wantCode)
			}
			if tt.err == nil && resp.Details != nil {
				t.Errorf("Expected no details, got %v", resp.Details)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation error",
			err:         errortypes.ValidationError(errors.New("invalid input"), "Invalid GitHub URL format"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid GitHub URL format",
		},
		{
			name:        "not found error",
			err:         errortypes.NotFoundError(errors.New("404"), "Repository not found"),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Repository not found",
		},
		{
			name:        "rate limit error",
			err:         errortypes.RateLimitError(errors.New("403"), "GitHub API rate limit exceeded"),
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "GitHub API rate limit exceeded",
		},
		{
			name:        "network error",
			err:         errortypes.NetworkError(errors.New("timeout"), "network error"),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Network error",
		},
		{
			name:        "external error",
			err:         errortypes.ExternalError(errors.New("bad"), "failed"),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Downstream service error",
		},
		{
			name:        "database error",
			err:         errortypes.DatabaseError(errors.New("db connection failed"), "database error"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "unknown error",
			err:         errors.New("generic error"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			HandleError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("HandleError() status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("HandleError() message = %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestErrorDetailsIncludeFields(t *testing.T) {
	c, w := newTestContext()

	err := errortypes.NotFoundError(errors.New("404"), "missing").WithField("path", "/repos/a/b")
	HandleError(c, err)

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Details["path"] != "/repos/a/b" {
		t.Errorf("Expected path detail, got %v", resp.Details)
	}
	if resp.Details["type"] != "not_found" {
		t.Errorf("Expected type detail, got %v", resp.Details)
	}
}

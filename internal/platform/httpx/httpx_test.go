package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractor-desk/contractor-desk/internal/shared"
)

func TestProblem(t *testing.T) {
	res := httptest.NewRecorder()
	Problem(res, http.StatusServiceUnavailable, "Dependency Unavailable", "backend: refused")

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, ProblemDetail{Type: "about:blank", Title: "Dependency Unavailable", Status: 503, Detail: "backend: refused"}, body)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{name: "not found", err: fmt.Errorf("contractor %q: %w", "9", shared.ErrNotFound), status: 404, detail: `contractor "9": not found`},
		{name: "validation", err: &shared.ValidationError{Field: "name", Message: "Name is required"}, status: 400, detail: "Name is required"},
		{name: "busy", err: shared.ErrBusy, status: 409},
		{name: "csrf", err: shared.ErrCSRFTokenMismatch, status: 403},
		{name: "expired", err: &shared.AuthError{Status: 401, Expired: true}, status: 401},
		{name: "server", err: &shared.ServerError{Op: "suppliers.list", Status: 500, Message: "db down"}, status: 502, detail: "db down"},
		{name: "network", err: &shared.NetworkError{Op: "suppliers.list", Err: errors.New("refused")}, status: 502, detail: "records API call failed"},
		{name: "other", err: errors.New("boom"), status: 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			RespondError(res, tc.err)
			assert.Equal(t, tc.status, res.Code)
			if tc.detail != "" {
				var body ProblemDetail
				require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
				assert.Equal(t, tc.detail, body.Detail)
			}
		})
	}
}

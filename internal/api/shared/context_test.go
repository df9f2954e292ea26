package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))

	generated := GetTraceID(SetTraceID(context.Background()))
	assert.Len(t, generated, 36)

	var fromRequestID string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetTraceID(r.Context())
		fromRequestID = GetTraceID(ctx)
		assert.Equal(t, middleware.GetReqID(r.Context()), fromRequestID)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, fromRequestID)
}

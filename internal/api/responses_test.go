package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRespondWith(t *testing.T) {
	rec, body := serve(t, func(c *gin.Context) {
		RespondWith(c, http.StatusCreated, gin.H{"id": "abc"})
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]interface{}{"id": "abc"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestRespondWithList(t *testing.T) {
	_, body := serve(t, func(c *gin.Context) {
		RespondWithList(c, []string{"a", "b"}, 2)
	})
	assert.Equal(t, float64(2), body["count"])
	assert.Len(t, body["data"], 2)
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"wrapped api error", fmt.Errorf("lookup: %w", ErrConflict), http.StatusConflict, ErrCodeConflict},
		{"custom", NewError(ErrCodeInvalidState, "tower collapsed", http.StatusConflict), http.StatusConflict, ErrCodeInvalidState},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(t, func(c *gin.Context) { RespondWithError(c, tt.err) })
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			errBody, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.code, errBody["code"])
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestWithDetailsCopies(t *testing.T) {
	detailed := ErrBadRequest.WithDetails(map[string]interface{}{"field": "nickname"})
	assert.Nil(t, ErrBadRequest.Details)
	assert.Equal(t, "nickname", detailed.Details["field"])
	assert.Equal(t, "INVALID_REQUEST: Invalid request", detailed.Error())
}

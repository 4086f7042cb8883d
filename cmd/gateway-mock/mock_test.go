package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(deliveryRate float64, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewHandler(NewMockGateway(deliveryRate, 0, 0, 0, token)))
}

func send(router *gin.Engine, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{"channel_ref":"chan-1","to":"+5511999990000","kind":"text","content":"hi"}`

func TestSendMessage_Accepted(t *testing.T) {
	w := send(newTestRouter(1, ""), validBody, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.True(t, strings.HasPrefix(resp.DeliveryID, "wamid."))
}

func TestSendMessage_Rejected(t *testing.T) {
	w := send(newTestRouter(0, ""), validBody, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Empty(t, resp.DeliveryID)
	assert.NotEmpty(t, errorMessages[resp.ErrorCode])
}

func TestSendMessage_RequiresFields(t *testing.T) {
	w := send(newTestRouter(1, ""), `{"to":"+5511999990000"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage_Token(t *testing.T) {
	router := newTestRouter(1, "secret")
	assert.Equal(t, http.StatusUnauthorized, send(router, validBody, "wrong").Code)
	assert.Equal(t, http.StatusOK, send(router, validBody, "secret").Code)
}

func TestUpdateConfig(t *testing.T) {
	router := newTestRouter(1, "")

	req := httptest.NewRequest(http.MethodPut, "/config", strings.NewReader(`{"delivery_rate":0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(send(router, validBody, "").Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestRouter(1, "").ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

package fraud

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T, repo DetectionRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(newServiceForTest(t, repo))

	router := gin.New()
	router.POST("/api/v1/messages/analyze", handler.AnalyzeMessage)
	router.GET("/api/v1/detections/:chat_id", handler.GetDetections)
	router.GET("/api/v1/stats", handler.GetStats)
	router.GET("/api/v1/rules", handler.GetRules)
	return router
}

func performRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestHandlerAnalyzeMessage(t *testing.T) {
	repo := new(mockDetectionRepository)
	repo.On("SaveDetection", mock.Anything, mock.Anything).Return(nil)
	router := setupTestRouter(t, repo)

	body, _ := json.Marshal(AnalyzeRequest{ChatID: "chat-1", MessageText: "this is a scam"})
	recorder := performRequest(router, http.MethodPost, "/api/v1/messages/analyze", body)

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]interface{})
	result := data["result"].(map[string]interface{})
	assert.Equal(t, "high", result["classification"])
}

func TestHandlerAnalyzeMessageMissingChatID(t *testing.T) {
	router := setupTestRouter(t, new(mockDetectionRepository))

	body, _ := json.Marshal(AnalyzeRequest{MessageText: "scam"})
	recorder := performRequest(router, http.MethodPost, "/api/v1/messages/analyze", body)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, false, envelope["success"])
}

func TestHandlerAnalyzeMessageMalformedBody(t *testing.T) {
	router := setupTestRouter(t, new(mockDetectionRepository))

	recorder := performRequest(router, http.MethodPost, "/api/v1/messages/analyze", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandlerGetDetections(t *testing.T) {
	repo := new(mockDetectionRepository)
	repo.On("GetDetectionsByChat", mock.Anything, "chat-1", 5, 10).Return([]*Detection{{ChatID: "chat-1"}}, nil)
	router := setupTestRouter(t, repo)

	recorder := performRequest(router, http.MethodGet, "/api/v1/detections/chat-1?limit=5&offset=10", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	repo.AssertExpectations(t)
}

func TestHandlerGetDetectionsInvalidPagination(t *testing.T) {
	router := setupTestRouter(t, new(mockDetectionRepository))

	for _, query := range []string{"limit=0", "limit=500", "offset=-1", "limit=abc"} {
		recorder := performRequest(router, http.MethodGet, "/api/v1/detections/chat-1?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "query %q", query)
	}
}

func TestHandlerGetStats(t *testing.T) {
	repo := new(mockDetectionRepository)
	repo.On("GetStats", mock.Anything).Return(&Stats{TotalDetections: 3}, nil)
	router := setupTestRouter(t, repo)

	recorder := performRequest(router, http.MethodGet, "/api/v1/stats", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total_detections"])
}

func TestHandlerGetStatsRepositoryError(t *testing.T) {
	repo := new(mockDetectionRepository)
	repo.On("GetStats", mock.Anything).Return(nil, errors.New("connection refused"))
	router := setupTestRouter(t, repo)

	recorder := performRequest(router, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestHandlerGetRules(t *testing.T) {
	router := setupTestRouter(t, new(mockDetectionRepository))

	recorder := performRequest(router, http.MethodGet, "/api/v1/rules", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	data := envelope["data"].(map[string]interface{})
	assert.NotEmpty(t, data["keywords"])
	assert.NotEmpty(t, data["brands"])
}

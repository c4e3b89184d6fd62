package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/shuiService/internal/config"
	"github.com/iwtcode/shuiService/internal/domain/models"
	"github.com/iwtcode/shuiService/internal/middleware/logging"
	"github.com/iwtcode/shuiService/internal/services/shui_service"
	"github.com/iwtcode/shuiService/internal/usecases"
)

// newOfflineRouter собирает роутер поверх принтера без подключения.
func newOfflineRouter(t *testing.T) http.Handler {
	t.Helper()
	offline, err := shui_service.NewOffline(t.TempDir(), logging.Nop(), nil)
	require.NoError(t, err)

	uc := usecases.NewUsecases(offline, nil, logging.Nop())
	return ProvideRouter(NewHandler(uc, logging.Nop()), &config.AppConfig{GinMode: gin.TestMode})
}

func serve(router http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetStateOffline(t *testing.T) {
	router := newOfflineRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/printer/state", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Connected)
	require.Nil(t, resp.State)
}

func TestControlCommands(t *testing.T) {
	router := newOfflineRouter(t)

	cases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unsupported", "/api/v1/printer/bed", `{"target":60}`, http.StatusNotImplemented},
		{"no body", "/api/v1/printer/pause", "", http.StatusNotImplemented},
		{"broken json", "/api/v1/printer/bed", `{"target":`, http.StatusBadRequest},
		{"out of range", "/api/v1/printer/fan", `{"speed":300}`, http.StatusBadRequest},
		{"missing message", "/api/v1/printer/lcd", `{}`, http.StatusBadRequest},
		{"dialog", "/api/v1/printer/dialog", `{"message":"done","seconds":5}`, http.StatusNotImplemented},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(router, http.MethodPost, tc.path, bytes.NewBufferString(tc.body), "application/json")
			require.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestCommandResponseBody(t *testing.T) {
	router := newOfflineRouter(t)

	w := serve(router, http.MethodPost, "/api/v1/printer/identify", nil, "")
	require.Equal(t, http.StatusNotImplemented, w.Code)

	var resp models.CommandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "error", resp.Status)
	require.Equal(t, models.GCodeResultUnsupported, resp.Result)
}

func TestFilesOffline(t *testing.T) {
	router := newOfflineRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/printer/files", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","files":[]}`, w.Body.String())

	w = serve(router, http.MethodGet, "/api/v1/printer/files/cube.gcode", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadOffline(t *testing.T) {
	router := newOfflineRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "cube.gcode")
	require.NoError(t, err)
	_, err = part.Write([]byte("G28\nG1 X10\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("print", "true"))
	require.NoError(t, mw.Close())

	w := serve(router, http.MethodPost, "/api/v1/printer/upload", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(router, http.MethodPost, "/api/v1/printer/upload", bytes.NewBufferString("x"), "text/plain")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	router := newOfflineRouter(t)

	w := serve(router, http.MethodGet, "/api/v1/printer/history?limit=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/printer/history?limit=abc", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/printer/history/archive", nil, "")
	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newOfflineRouter(t)
	w := serve(router, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

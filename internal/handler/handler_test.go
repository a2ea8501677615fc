package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/handler"
	"docintake/internal/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// serve mounts h at route and performs one request against it.
func serve(method, route, path string, h gin.HandlerFunc, body io.Reader, contentType string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	if body == nil {
		body = http.NoBody
	}
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error.Code
}

type multipartFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []multipartFile, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNoPages, http.StatusBadRequest, "NO_PAGES"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrNoTextExtracted, http.StatusUnprocessableEntity, "NO_TEXT_EXTRACTED"},
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{domain.ErrFieldNotFound, http.StatusNotFound, "FIELD_NOT_FOUND"},
		{domain.ErrFieldNotModified, http.StatusConflict, "FIELD_NOT_MODIFIED"},
		{domain.ErrDocumentNotCompleted, http.StatusConflict, "DOCUMENT_NOT_COMPLETED"},
		{domain.ErrRecognizerDisabled, http.StatusServiceUnavailable, "OCR_UNAVAILABLE"},
		{llm.NewRateLimitError("openai", errors.New("429"), 5), http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	ok := handler.NewHealthHandler(fakePinger{})
	down := handler.NewHealthHandler(fakePinger{err: errors.New("refused")})

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/healthz", "/healthz", down.Liveness, nil, "").Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/readyz", "/readyz", ok.Readiness, nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(http.MethodGet, "/readyz", "/readyz", down.Readiness, nil, "").Code)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/metrics"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err       error
	text      string
	image     []byte
	video     []byte
	videoName string
	url       string
}

func verdict() model.CheckResult {
	return model.CheckResult{
		Success:          true,
		Status:           "Iklan Judi",
		Confidence:       "70.00%",
		RawConfidence:    0.7,
		GamblingKeywords: []string{"judi", "slot"},
		KeywordCount:     2,
		Method:           model.MethodKeywordTiers,
	}
}

func (f *fakeChecker) CheckText(ctx context.Context, text string) (*model.TextResult, error) {
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return &model.TextResult{CheckResult: verdict(), TextLength: len(text)}, nil
}

func (f *fakeChecker) CheckImage(ctx context.Context, data []byte) (*model.ImageResult, error) {
	f.image = data
	if f.err != nil {
		return nil, f.err
	}
	return &model.ImageResult{CheckResult: verdict(), OCRText: "slot"}, nil
}

func (f *fakeChecker) CheckVideo(ctx context.Context, video io.Reader, name string) (*model.VideoResult, error) {
	data, err := io.ReadAll(video)
	if err != nil {
		return nil, err
	}
	f.video, f.videoName = data, name
	if f.err != nil {
		return nil, f.err
	}
	return &model.VideoResult{CheckResult: verdict(), FramesSampled: 3}, nil
}

func (f *fakeChecker) CheckURL(ctx context.Context, rawURL string) (*model.URLResult, error) {
	f.url = rawURL
	if f.err != nil {
		return nil, f.err
	}
	return &model.URLResult{CheckResult: verdict(), SourceURL: rawURL, DetectionMethod: "keyword_analysis"}, nil
}

func (f *fakeChecker) CheckMedia(ctx context.Context, rawURL string) (*model.MediaResult, error) {
	f.url = rawURL
	if f.err != nil {
		return nil, f.err
	}
	return &model.MediaResult{CheckResult: verdict(), MediaURL: rawURL, AnalysisMethod: model.MediaMetadataOnly}, nil
}

func (f *fakeChecker) FetchWebpage(ctx context.Context, rawURL string) (extract.PageText, error) {
	f.url = rawURL
	if f.err != nil {
		return extract.PageText{}, f.err
	}
	return extract.PageText{URL: rawURL, FinalURL: rawURL, Text: "Slot gacor hari ini"}, nil
}

func newTestServer(checker Checker, opts Options) http.Handler {
	gin.SetMode(gin.TestMode)
	return New(checker, opts).Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestIndex(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{Profile: "general"})

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API Deteksi Iklan Judi Online aktif.", body["message"])
	assert.Equal(t, "general", body["profile"])
}

func TestDetectText(t *testing.T) {
	checker := &fakeChecker{}
	h := newTestServer(checker, Options{})

	rec, body := do(t, h, jsonRequest(http.MethodPost, "/api/detect-text", `{"text":"slot online judi casino"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "slot online judi casino", checker.text)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Iklan Judi", body["status"])
	assert.Equal(t, "70.00%", body["confidence"])
	assert.Equal(t, []interface{}{"judi", "slot"}, body["gambling_keywords"])
	assert.EqualValues(t, 23, body["text_length"])
}

func TestDetectText_BadJSON(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{})

	rec, body := do(t, h, jsonRequest(http.MethodPost, "/api/detect-text", `{"text":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "invalid body")
}

func TestDetectImage(t *testing.T) {
	checker := &fakeChecker{}
	h := newTestServer(checker, Options{})

	rec, body := do(t, h, multipartRequest(t, "/api/detect-image", "image", "banner.png", []byte("png-bytes")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("png-bytes"), checker.image)
	assert.Equal(t, "slot", body["ocr_text"])
}

func TestDetectImage_MissingFile(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{})

	rec, body := do(t, h, multipartRequest(t, "/api/detect-image", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid image")
}

func TestDetectImage_TooLarge(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{MaxUploadBytes: 64})

	rec, _ := do(t, h, multipartRequest(t, "/api/detect-image", "image", "big.png", bytes.Repeat([]byte("x"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDetectVideo(t *testing.T) {
	checker := &fakeChecker{}
	h := newTestServer(checker, Options{})

	rec, body := do(t, h, multipartRequest(t, "/api/detect-video", "video", "ad.mp4", []byte("mp4-bytes")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("mp4-bytes"), checker.video)
	assert.Equal(t, "ad.mp4", checker.videoName)
	assert.EqualValues(t, 3, body["frames_sampled"])
}

func TestDetectURL_BothRoutes(t *testing.T) {
	for _, path := range []string{"/api/detect-url", "/api/detect-web"} {
		t.Run(path, func(t *testing.T) {
			checker := &fakeChecker{}
			h := newTestServer(checker, Options{})

			rec, body := do(t, h, jsonRequest(http.MethodPost, path, `{"url":"https://example.com"}`))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "https://example.com", checker.url)
			assert.Equal(t, "keyword_analysis", body["detection_method"])
		})
	}
}

func TestDetectYouTube(t *testing.T) {
	checker := &fakeChecker{}
	h := newTestServer(checker, Options{})

	rec, body := do(t, h, jsonRequest(http.MethodPost, "/api/detect-youtube", `{"youtube_url":"https://youtu.be/abcdefghijk"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://youtu.be/abcdefghijk", checker.url)
	assert.Equal(t, model.MediaMetadataOnly, body["method"])
}

func TestFetchWebpage(t *testing.T) {
	checker := &fakeChecker{}
	h := newTestServer(checker, Options{})

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/fetch-webpage?url=https://example.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", checker.url)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Slot gacor hari ini", body["content"])
	assert.EqualValues(t, 19, body["content_length"])
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", model.NewInputError("text", "empty"), http.StatusBadRequest},
		{"blocked", &model.FetchError{URL: "u", StatusCode: 403, Err: model.ErrBlocked}, http.StatusForbidden},
		{"robots", &model.FetchError{URL: "u", Err: extract.ErrRobotsDisallowed}, http.StatusForbidden},
		{"too short", &model.FetchError{URL: "u", Err: model.ErrInsufficientContent}, http.StatusUnprocessableEntity},
		{"upstream", &model.FetchError{URL: "u", StatusCode: 500, Err: errors.New("boom")}, http.StatusBadGateway},
		{"internal", errors.New("text check: internal error: nil map"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeChecker{err: tt.err}, Options{})

			rec, body := do(t, h, jsonRequest(http.MethodPost, "/api/detect-url", `{"url":"https://example.com"}`))
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/detect-text", nil)
	req.Header.Set("Origin", "https://frontend.example")
	rec, _ := do(t, h, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	h := newTestServer(&fakeChecker{}, Options{Metrics: collector, Gatherer: reg})

	do(t, h, jsonRequest(http.MethodPost, "/api/detect-text", `{"text":"slot"}`))
	do(t, h, jsonRequest(http.MethodPost, "/api/detect-text", `{"text":`))

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "judolscan_http_requests_total"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `judolscan_http_requests_total{route="/api/detect-text",status="2xx"} 1`)
	assert.Contains(t, rec.Body.String(), `judolscan_http_requests_total{route="/api/detect-text",status="4xx"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestServer(&fakeChecker{}, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_Shutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New(&fakeChecker{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	assert.NoError(t, <-done)
}

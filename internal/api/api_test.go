package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rise-and-shine/quote3d/internal/api"
	"github.com/rise-and-shine/quote3d/internal/filestore/localwr"
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/session"
	"github.com/rise-and-shine/quote3d/internal/storage"
	"github.com/rise-and-shine/quote3d/pkg/http/server"
	"github.com/rise-and-shine/quote3d/pkg/http/server/middleware"
	"github.com/rise-and-shine/quote3d/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer returns a fixed geometry report for any input.
type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, r io.Reader, _ string) (*geometry.Analysis, error) {
	_, _ = io.Copy(io.Discard, r)
	return &geometry.Analysis{
		Volume:        42.5,
		SurfaceArea:   120.0,
		TriangleCount: 12,
		VertexCount:   8,
		IsWatertight:  true,
		Units:         "mm",
	}, nil
}

// stubConverter emits a constant STL body for any input.
type stubConverter struct{}

func (stubConverter) ConvertToSTL(_ context.Context, r io.Reader, _ string) (io.ReadCloser, error) {
	_, _ = io.Copy(io.Discard, r)
	return io.NopCloser(bytes.NewReader([]byte("solid converted\nendsolid converted\n"))), nil
}

type testEnv struct {
	app      *server.HTTPServer
	registry *session.Registry
	manager  *storage.Manager
}

func newTestEnv(t *testing.T, analyzer geometry.Analyzer, converter geometry.Converter) *testEnv {
	t.Helper()

	log, err := logger.New(logger.Config{Disable: true})
	require.NoError(t, err)

	backend, err := localwr.New(localwr.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	registry := session.NewRegistry()
	manager := storage.NewManager(backend, 24*time.Hour)

	srv := server.NewHTTPServer(
		server.Config{
			Host:         "127.0.0.1",
			Port:         8099,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
			BodyLimit:    16 << 20,
		},
		[]server.Middleware{
			middleware.NewRecoveryMW(log),
			middleware.NewTimeoutMW(5 * time.Second),
			middleware.NewMetaInjectMW("quote3d-api", "test"),
			middleware.NewLoggerMW(log),
		},
	)
	srv.RegisterRouter(api.New(log, registry, manager, analyzer, converter).Register)

	return &testEnv{app: srv, registry: registry, manager: manager}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := e.app.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) uploadFile(t *testing.T, sessionID, filename string, content []byte) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	if sessionID != "" {
		require.NoError(t, w.WriteField("session_id", sessionID))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp := e.do(t, req)
	return resp, decodeJSON(t, resp)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRootAndHealth(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "healthy", body["status"])
}

func TestUpload_Accepted(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp, body := e.uploadFile(t, "s1", "part.stl", []byte("solid part\nendsolid part\n"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "s1", body["session_id"])
	assert.Equal(t, float64(1), body["session_file_count"])
	assert.Len(t, body["fingerprint"], 64)

	file, ok := body["file"].(map[string]any)
	require.True(t, ok, "accepted upload must carry the stored file")
	assert.Equal(t, "part.stl", file["filename"])
	assert.NotEmpty(t, file["handle"])
	assert.Equal(t, ".stl", file["format"])
	assert.Equal(t, "/download/"+file["handle"].(string), file["download_url"])

	assert.Equal(t, 1, e.manager.Info().ObjectCount)
}

func TestUpload_GeneratesSessionID(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp, body := e.uploadFile(t, "", "part.stl", []byte("abc"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["session_id"], "server must open a session when the client has none")
}

func TestUpload_DuplicateAndNameConflict(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	bytesA := []byte("content A")
	bytesB := []byte("content B")

	_, body := e.uploadFile(t, "s1", "part.stl", bytesA)
	require.Equal(t, "accepted", body["status"])

	// Same name, different bytes.
	resp, body := e.uploadFile(t, "s1", "part.stl", bytesB)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "conflicts are data, not HTTP errors")
	assert.Equal(t, "name_conflict", body["status"])
	assert.Equal(t, float64(1), body["session_file_count"])
	assert.Nil(t, body["file"], "rejected uploads must not store anything")

	// Different name, same bytes.
	resp, body = e.uploadFile(t, "s1", "other.stl", bytesA)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "duplicate", body["status"])
	assert.Equal(t, float64(1), body["session_file_count"])

	// Only the first upload reached storage.
	assert.Equal(t, 1, e.manager.Info().ObjectCount)

	// A different session accepts the same content independently.
	_, body = e.uploadFile(t, "s2", "part.stl", bytesA)
	assert.Equal(t, "accepted", body["status"])
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp, body := e.uploadFile(t, "s1", "notes.txt", []byte("hello"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNSUPPORTED_FORMAT", errBody["code"])

	assert.Equal(t, 0, e.registry.FileCount("s1"), "rejected formats must not touch the session")
	assert.Equal(t, 0, e.manager.Info().ObjectCount)
}

func TestUpload_MissingFile(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("session_id", "s1"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp := e.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "MISSING_FILE", errBody["code"])
}

func TestUpload_WithGeometryAnalysis(t *testing.T) {
	e := newTestEnv(t, stubAnalyzer{}, stubConverter{})

	_, body := e.uploadFile(t, "s1", "part.stl", []byte("solid part\nendsolid part\n"))

	require.Equal(t, "accepted", body["status"])
	analysis, ok := body["geometry_analysis"].(map[string]any)
	require.True(t, ok, "analysis must be attached when the analyzer is configured")
	assert.Equal(t, 42.5, analysis["volume"])
	assert.Equal(t, true, analysis["is_watertight"])

	// STL needs no conversion for the viewer.
	assert.Nil(t, body["converted_file_url"])
}

func TestUpload_ConvertsCADForViewer(t *testing.T) {
	e := newTestEnv(t, stubAnalyzer{}, stubConverter{})

	_, body := e.uploadFile(t, "s1", "bracket.step", []byte("ISO-10303-21;"))

	require.Equal(t, "accepted", body["status"])
	converted, ok := body["converted_file_url"].(string)
	require.True(t, ok, "STEP uploads must produce a converted STL for the viewer")
	assert.Contains(t, converted, "/download/")

	// Original plus converted copy.
	assert.Equal(t, 2, e.manager.Info().ObjectCount)

	resp := e.do(t, httptest.NewRequest(http.MethodGet, converted, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, []byte("solid converted\nendsolid converted\n"), got)
}

func TestDownload_RoundTrip(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	content := []byte("solid part\nendsolid part\n")
	_, body := e.uploadFile(t, "s1", "part.stl", content)
	handle := body["file"].(map[string]any)["handle"].(string)

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/download/"+handle, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="part.stl"`)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, content, got)
}

func TestDownload_UnknownHandle(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/download/nope.stl", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeJSON(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, storage.CodeHandleNotFound, errBody["code"])
}

func TestDeleteFile(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	_, body := e.uploadFile(t, "s1", "part.stl", []byte("abc"))
	handle := body["file"].(map[string]any)["handle"].(string)

	resp := e.do(t, httptest.NewRequest(http.MethodDelete, "/files/"+handle, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	// Idempotent.
	resp = e.do(t, httptest.NewRequest(http.MethodDelete, "/files/"+handle, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/download/"+handle, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSessionEndpoints(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	// Unknown sessions report zero, never an error.
	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/sessions/unknown", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, float64(0), body["file_count"])

	e.uploadFile(t, "s1", "a.stl", []byte("a"))
	e.uploadFile(t, "s1", "b.stl", []byte("b"))

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/sessions/s1", nil))
	body = decodeJSON(t, resp)
	assert.Equal(t, float64(2), body["file_count"])

	// Remove one entry; its content can come back afterwards.
	resp = e.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/s1/files/a.stl", nil))
	body = decodeJSON(t, resp)
	assert.Equal(t, true, body["removed"])
	assert.Equal(t, float64(1), body["file_count"])

	_, body = e.uploadFile(t, "s1", "a.stl", []byte("a"))
	assert.Equal(t, "accepted", body["status"])

	// Clear the session entirely.
	resp = e.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil))
	body = decodeJSON(t, resp)
	assert.Equal(t, float64(0), body["file_count"])

	_, body = e.uploadFile(t, "s1", "a.stl", []byte("a"))
	assert.Equal(t, "accepted", body["status"], "cleared sessions accept previously-seen content")
}

func TestClearSession_KeepsStoredBytes(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	_, body := e.uploadFile(t, "s1", "part.stl", []byte("abc"))
	handle := body["file"].(map[string]any)["handle"].(string)

	resp := e.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil))
	_ = resp.Body.Close()

	// Clearing tracking must not reclaim storage; that is the sweep's job.
	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/download/"+handle, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestStorageInfo(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	e.uploadFile(t, "s1", "a.stl", []byte("a"))

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/storage/info", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, "local", body["backend_kind"])
	assert.Equal(t, "24h0m0s", body["retention"])
	assert.Equal(t, float64(1), body["object_count"])
}

func TestSweep_OnDemand(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	e.uploadFile(t, "s1", "a.stl", []byte("a"))

	// Nothing is older than the configured retention yet.
	resp := e.do(t, httptest.NewRequest(http.MethodPost, "/storage/sweep", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, float64(0), body["removed"])

	// An explicit zero threshold expires everything immediately.
	resp = e.do(t, httptest.NewRequest(http.MethodPost, "/storage/sweep?older_than=0s", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeJSON(t, resp)
	assert.Equal(t, float64(1), body["removed"])
	assert.Equal(t, 0, e.manager.Info().ObjectCount)
}

func TestSweep_InvalidDuration(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp := e.do(t, httptest.NewRequest(http.MethodPost, "/storage/sweep?older_than=soon", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_DURATION", errBody["code"])
}

func TestQuote(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	payload := `{"volume": 100, "material": "pla", "process": "fdm", "quantity": 1}`
	req := httptest.NewRequest(http.MethodPost, "/quote", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")

	resp := e.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	assert.Equal(t, 20.0, body["total"])
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, float64(7), body["estimated_delivery_days"])
}

func TestQuote_ValidationFailure(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	payload := `{"volume": -5, "material": "pla", "process": "fdm", "quantity": 1}`
	req := httptest.NewRequest(http.MethodPost, "/quote", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")

	resp := e.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
}

func TestQuoteOptions(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/quote/options", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	materials, ok := body["materials"].([]any)
	require.True(t, ok)
	assert.Contains(t, materials, "pla")

	processes, ok := body["processes"].([]any)
	require.True(t, ok)
	assert.Contains(t, processes, "fdm")
}

func TestEndToEndScenario(t *testing.T) {
	e := newTestEnv(t, nil, nil)

	bytesA := []byte("bytes A")
	bytesB := []byte("bytes B")

	_, body := e.uploadFile(t, "s1", "part.stl", bytesA)
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, float64(1), body["session_file_count"])

	_, body = e.uploadFile(t, "s1", "part.stl", bytesB)
	assert.Equal(t, "name_conflict", body["status"])

	_, body = e.uploadFile(t, "s1", "other.stl", bytesA)
	assert.Equal(t, "duplicate", body["status"])

	resp := e.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil))
	body = decodeJSON(t, resp)
	assert.Equal(t, float64(0), body["file_count"])
}

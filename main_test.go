package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"querystack/internal/ai"
	"querystack/internal/auth"
	"querystack/internal/cache"
	"querystack/internal/database"
	"querystack/internal/events"
	"querystack/internal/repositories"
	"querystack/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type testApp struct {
	app    *fiber.App
	tokens *auth.TokenService
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	pool := database.New(database.Config{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: gormlogger.Silent,
	}, zap.NewNop())
	t.Cleanup(func() { pool.Close() })

	uploads, err := storage.NewLocalStore(t.TempDir(), "/uploads", storage.DefaultMaxBytes)
	require.NoError(t, err)

	store := repositories.NewGORMStore(pool)
	tokens := auth.NewTokenService("test_jwt_secret", time.Hour)
	app := newApp(appDeps{
		Store:     store,
		Tokens:    tokens,
		Cache:     cache.Nop{},
		Publisher: events.Nop{},
		Generator: ai.NewClient(ai.Config{}),
		Uploads:   uploads,
		UploadURL: "/uploads",
		CacheTTL:  time.Minute,
		Logger:    zap.NewNop(),
	})
	return &testApp{app: app, tokens: tokens}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	ta := setupTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	ta := setupTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestReadRoutesAreWired(t *testing.T) {
	ta := setupTestApp(t)

	for _, path := range []string{
		"/api/questions",
		"/api/questions/hot",
		"/api/tags",
		"/api/tags/top",
		"/api/users",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, true, decode(t, resp)["success"])
		})
	}
}

func TestAIAnswerWithoutKeyIsUnavailable(t *testing.T) {
	ta := setupTestApp(t)

	payload, err := json.Marshal(map[string]string{
		"question": "What is a goroutine?",
		"content":  strings.Repeat("goroutines are lightweight threads ", 5),
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/ai/answers", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUploadAndServe(t *testing.T) {
	ta := setupTestApp(t)
	token, err := ta.tokens.Issue(auth.Session{UserID: "user-1"})
	require.NoError(t, err)

	upload := func(token string, data []byte) *http.Response {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := ta.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := upload("", pngHeader)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = upload(token, []byte("plain text is not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = upload(token, pngHeader)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	url := body["data"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	served, err := ta.app.Test(httptest.NewRequest(http.MethodGet, url, nil), -1)
	require.NoError(t, err)
	defer served.Body.Close()
	assert.Equal(t, http.StatusOK, served.StatusCode)
}

func TestHealthReportsStoreOutage(t *testing.T) {
	pool := database.New(database.Config{
		Driver: "postgres",
		DSN:    "host=127.0.0.1 port=1 user=postgres dbname=querystack sslmode=disable connect_timeout=1",
	}, zap.NewNop())
	t.Cleanup(func() { pool.Close() })

	app := newApp(appDeps{
		Store:     repositories.NewGORMStore(pool),
		Tokens:    auth.NewTokenService("test_jwt_secret", time.Hour),
		Cache:     cache.Nop{},
		Publisher: events.Nop{},
		Generator: ai.NewClient(ai.Config{}),
		Logger:    zap.NewNop(),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", decode(t, resp)["status"])
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockCompleter is a scripted completion client. It records every prompt
// and answers with canned responses, so handler tests never touch a
// provider.
type mockCompleter struct {
	mu        sync.Mutex
	prompts   []string
	responses []string
	err       error
}

func newMockCompleter(responses ...string) *mockCompleter {
	return &mockCompleter{responses: responses}
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return fmt.Sprintf("response-%d", i), nil
}

func (m *mockCompleter) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= len(m.prompts) {
		return ""
	}
	return m.prompts[i]
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{
			Host: "localhost",
			Port: 9090,
		}

		server, err := NewServer(newMockCompleter(), zap.NewNop(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(newMockCompleter(), zap.NewNop(), nil)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9090, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(newMockCompleter(), nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when completer is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "completer cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestHandleReflect(t *testing.T) {
	t.Run("runs draft, critique and revision", func(t *testing.T) {
		server, completer := setupTestServer(t)

		reqBody := ReflectRequest{
			Persona:  "You are an expert translator.",
			Task:     "Translate the paragraph into French.",
			Criteria: []string{"accuracy"},
		}

		body, err := json.Marshal(reqBody)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp ReflectResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(resp.ID, "refl-"))
		assert.Equal(t, "revision text", resp.Result)
		assert.Equal(t, "draft text", resp.Draft)
		assert.Equal(t, "critique text", resp.Critique)
		assert.GreaterOrEqual(t, resp.DurationMS, int64(0))

		// Three upstream calls: the first carries the rendered prompt,
		// the second embeds the draft and the numbered criteria.
		assert.Equal(t, 3, completer.callCount())
		assert.Equal(t, reqBody.Persona+reqBody.Task, completer.prompt(0))
		assert.Contains(t, completer.prompt(1), "<FIRST_RESULT>\ndraft text\n</FIRST_RESULT>")
		assert.Contains(t, completer.prompt(1), "1. accuracy")
		assert.Contains(t, completer.prompt(2), "<EXPERT_SUGGESTIONS>\ncritique text\n</EXPERT_SUGGESTIONS>")
	})

	t.Run("handles missing persona field", func(t *testing.T) {
		server, _ := setupTestServer(t)

		reqBody := ReflectRequest{
			Task: "Translate the paragraph into French.",
		}

		body, err := json.Marshal(reqBody)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Contains(t, resp["message"], "persona field is required")
	})

	t.Run("handles missing task field", func(t *testing.T) {
		server, _ := setupTestServer(t)

		reqBody := ReflectRequest{
			Persona: "You are an expert translator.",
		}

		body, err := json.Marshal(reqBody)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Contains(t, resp["message"], "task field is required")
	})

	t.Run("handles invalid json", func(t *testing.T) {
		server, _ := setupTestServer(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader([]byte("invalid json")))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps provider failure to bad gateway", func(t *testing.T) {
		completer := newMockCompleter()
		completer.err = errors.New("model overloaded")

		server, err := NewServer(completer, zap.NewNop(), nil)
		require.NoError(t, err)

		reqBody := ReflectRequest{
			Persona: "You are an expert translator.",
			Task:    "Translate the paragraph into French.",
		}

		body, err := json.Marshal(reqBody)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var resp map[string]interface{}
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Contains(t, resp["message"], "upstream provider error")
	})

	t.Run("concurrent requests get independent runs", func(t *testing.T) {
		server, completer := setupTestServer(t)

		const parallel = 4
		var wg sync.WaitGroup
		codes := make([]int, parallel)

		for i := 0; i < parallel; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				reqBody := ReflectRequest{
					Persona: "You are an expert translator.",
					Task:    fmt.Sprintf("Translate paragraph %d into French.", i),
				}
				body, err := json.Marshal(reqBody)
				if err != nil {
					return
				}

				req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				rec := httptest.NewRecorder()

				server.echo.ServeHTTP(rec, req)
				codes[i] = rec.Code
			}(i)
		}
		wg.Wait()

		for i, code := range codes {
			assert.Equal(t, http.StatusOK, code, "request %d", i)
		}
		assert.Equal(t, 3*parallel, completer.callCount())
	})
}

func TestHandleStatus(t *testing.T) {
	completer := newMockCompleter("draft text", "critique text", "revision text")
	cfg := &Config{
		Host:    "localhost",
		Port:    9090,
		Version: "1.2.3",
	}

	server, err := NewServer(completer, zap.NewNop(), cfg)
	require.NoError(t, err)

	// One successful run.
	reqBody := ReflectRequest{
		Persona: "You are an expert translator.",
		Task:    "Translate the paragraph into French.",
	}
	body, err := json.Marshal(reqBody)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// One failed run.
	completer.err = errors.New("model overloaded")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/reflect", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec = httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	err = json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, int64(1), resp.Counts.Runs)
	assert.Equal(t, int64(1), resp.Counts.Failures)
}

func TestServerLifecycle(t *testing.T) {
	t.Run("starts and shuts down gracefully", func(t *testing.T) {
		cfg := &Config{
			Host: "localhost",
			Port: 0, // Use random available port
		}

		server, err := NewServer(newMockCompleter(), zap.NewNop(), cfg)
		require.NoError(t, err)

		// Start server in background
		errChan := make(chan error, 1)
		go func() {
			errChan <- server.Start()
		}()

		// Give server time to start
		time.Sleep(100 * time.Millisecond)

		// Shutdown server
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = server.Shutdown(ctx)
		assert.NoError(t, err)

		// Wait for server to finish
		select {
		case err := <-errChan:
			// Server should shut down cleanly (http.ErrServerClosed is expected)
			assert.True(t, err == nil || err == http.ErrServerClosed)
		case <-time.After(6 * time.Second):
			t.Fatal("server did not shut down in time")
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response", func(t *testing.T) {
		server, _ := setupTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		server, _ := setupTestServer(t)

		// Add a route that panics
		server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		// Should not panic, middleware should recover
		assert.NotPanics(t, func() {
			server.echo.ServeHTTP(rec, req)
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

// setupTestServer creates a test server backed by a scripted completer.
func setupTestServer(t *testing.T) (*Server, *mockCompleter) {
	t.Helper()

	completer := newMockCompleter("draft text", "critique text", "revision text")
	cfg := &Config{
		Host: "localhost",
		Port: 9090,
	}

	server, err := NewServer(completer, zap.NewNop(), cfg)
	require.NoError(t, err)

	return server, completer
}

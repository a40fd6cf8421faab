package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"guardrelay/internal/config"
	"guardrelay/internal/guardrail"
	"guardrelay/internal/models"
	"guardrelay/internal/relay"
	"guardrelay/internal/sanitize"
	"guardrelay/internal/upstream"
)

// maxRequestBody bounds the accepted chat request size.
const maxRequestBody = 1 << 20

// ModelCaller invokes the remote inference endpoint and returns a streaming
// body, or a *upstream.CallError on an upstream rejection.
type ModelCaller interface {
	Stream(ctx context.Context, payload upstream.Payload) (io.ReadCloser, error)
}

// Handler wires HTTP routes to the sanitizer, the model endpoint and the
// stream relay.
type Handler struct {
	model     ModelCaller
	gen       config.GenerationConfig
	staticDir string
}

// NewHandler constructs a Handler instance.
func NewHandler(model ModelCaller, gen config.GenerationConfig, staticDir string) *Handler {
	return &Handler{
		model:     model,
		gen:       gen,
		staticDir: staticDir,
	}
}

// RegisterRoutes attaches all HTTP routes to the router. Unknown API paths
// return 404, a wrong method on a known path returns 405, and every non-API
// path falls through to the static asset directory.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/chat", h.chat)

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	router.NoRoute(h.serveStatic)
}

func (h *Handler) chat(c *gin.Context) {
	requestID := uuid.NewString()

	// Malformed or missing fields degrade to empty collections, never 400.
	var req models.ChatRequest
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err == nil {
		_ = json.Unmarshal(body, &req)
	}

	blocked := sanitize.BlockSet(req.BlockedUserContents)
	messages := sanitize.Sanitize(req.Messages, blocked)

	payload := upstream.Payload{
		Messages:    messages,
		MaxTokens:   h.gen.MaxTokens,
		Temperature: h.gen.Temperature,
		TopP:        h.gen.TopP,
		Stream:      true,
	}

	stream, err := h.model.Stream(c.Request.Context(), payload)
	if err != nil {
		var callErr *upstream.CallError
		if errors.As(err, &callErr) {
			cls := guardrail.Classify(callErr.Body)
			msg := guardrail.UserMessage(cls)
			log.Printf("chat %s: upstream rejected status=%d code=%d message=%q", requestID, callErr.Status, cls.Code, msg)
			c.JSON(callErr.Status, gin.H{"error": msg})
			return
		}
		log.Printf("chat %s: model call failed: %v", requestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}
	defer stream.Close()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		log.Printf("chat %s: streaming not supported by writer", requestID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// A mid-stream error ends the relay after all prior frames are written;
	// the response is still closed cleanly with no partial frame.
	if err := relay.Relay(c.Request.Context(), stream, c.Writer, flusher.Flush); err != nil {
		log.Printf("chat %s: relay ended with error: %v", requestID, err)
	}
}

func (h *Handler) serveStatic(c *gin.Context) {
	path := c.Request.URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if h.staticDir == "" {
		c.Status(http.StatusNotFound)
		return
	}
	target := filepath.Join(h.staticDir, filepath.Clean("/"+path))
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		c.File(target)
		return
	}
	c.File(filepath.Join(h.staticDir, "index.html"))
}

package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/pagestack/internal/session"
	"github.com/GriffinCanCode/pagestack/internal/stack"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Navigator is the session surface exposed over HTTP
type Navigator interface {
	ID() string
	Navigate(ctx context.Context, url string) (session.HistoryState, error)
	Back(ctx context.Context) (session.HistoryState, bool, error)
	Forward(ctx context.Context) (session.HistoryState, bool, error)
	History(ctx context.Context) (session.HistoryState, error)
	Click(ctx context.Context, selector string) (session.ClickResult, error)
	Open(ctx context.Context, stackID string, req session.OpenRequest) (stack.StackInfo, error)
	ClosePage(ctx context.Context, stackID string) (stack.StackInfo, error)
	Reload(ctx context.Context, stackID string) (stack.StackInfo, error)
	CancelLoad(ctx context.Context, stackID string, cancelOnly bool) (stack.StackInfo, error)
	Snapshot(ctx context.Context) ([]stack.StackInfo, error)
	Stack(ctx context.Context, stackID string) (stack.StackInfo, error)
	Document(ctx context.Context) (string, error)
	Stats(ctx context.Context) (session.Stats, error)
}

// DefaultTimeout bounds a single session operation
const DefaultTimeout = 10 * time.Second

// Handlers contains all HTTP handlers
type Handlers struct {
	nav     Navigator
	metrics *HandlerMetrics
	logger  *zap.Logger
	timeout time.Duration
	version string
}

// NewHandlers creates a new handler set
func NewHandlers(nav Navigator, metrics *HandlerMetrics, logger *zap.Logger, version string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		nav:     nav,
		metrics: metrics,
		logger:  logger,
		timeout: DefaultTimeout,
		version: version,
	}
}

// NavigateRequest moves the address
type NavigateRequest struct {
	URL string `json:"url" binding:"required"`
}

// ClickRequest activates an element
type ClickRequest struct {
	Selector string `json:"selector" binding:"required"`
}

// CancelRequest controls what follows a cancelled load
type CancelRequest struct {
	CancelOnly bool `json:"cancel_only"`
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "pagestack",
		"version": h.version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	stats, err := h.nav.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"session": stats,
	})
}

// ListStacks describes every stack
func (h *Handlers) ListStacks(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track("snapshot")
	stacks, err := h.nav.Snapshot(ctx)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stacks": stacks,
		"count":  len(stacks),
	})
}

// GetStack describes one stack
func (h *Handlers) GetStack(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	info, err := h.nav.Stack(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetDocument renders the live document
func (h *Handlers) GetDocument(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track("document")
	doc, err := h.nav.Document(ctx)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// GetHistory returns the address history
func (h *Handlers) GetHistory(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	state, err := h.nav.History(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Navigate changes the address
func (h *Handlers) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track("navigate")
	state, err := h.nav.Navigate(ctx, req.URL)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Back moves one address entry back
func (h *Handlers) Back(c *gin.Context) {
	h.move(c, "back", h.nav.Back)
}

// Forward moves one address entry forward
func (h *Handlers) Forward(c *gin.Context) {
	h.move(c, "forward", h.nav.Forward)
}

func (h *Handlers) move(c *gin.Context, op string, fn func(context.Context) (session.HistoryState, bool, error)) {
	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track(op)
	state, moved, err := fn(ctx)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"moved":   moved,
		"history": state,
	})
}

// Click activates an element by selector
func (h *Handlers) Click(c *gin.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selector is required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track("click")
	result, err := h.nav.Click(ctx, req.Selector)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenPage opens a url in a stack
func (h *Handlers) OpenPage(c *gin.Context) {
	var req session.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track("open")
	info, err := h.nav.Open(ctx, c.Param("id"), req)
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, info)
}

// ClosePage closes the active page of a stack
func (h *Handlers) ClosePage(c *gin.Context) {
	h.onStack(c, "close", h.nav.ClosePage)
}

// ReloadPage reloads the active page of a stack
func (h *Handlers) ReloadPage(c *gin.Context) {
	h.onStack(c, "reload", h.nav.Reload)
}

// CancelLoad aborts the in-flight load of a stack. The body is optional.
func (h *Handlers) CancelLoad(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cancel request"})
			return
		}
	}
	h.onStack(c, "cancel", func(ctx context.Context, stackID string) (stack.StackInfo, error) {
		return h.nav.CancelLoad(ctx, stackID, req.CancelOnly)
	})
}

func (h *Handlers) onStack(c *gin.Context, op string, fn func(context.Context, string) (stack.StackInfo, error)) {
	ctx, cancel := h.context(c)
	defer cancel()

	done := h.metrics.Track(op)
	info, err := fn(ctx, c.Param("id"))
	done(err)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handlers) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail maps session errors to status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Session operation failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor returns the HTTP status for a session error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownStack), errors.Is(err, session.ErrNoElement):
		return http.StatusNotFound
	case errors.Is(err, stack.ErrUnsupportedURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, stack.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotStarted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

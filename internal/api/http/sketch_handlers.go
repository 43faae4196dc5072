package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/SketchBox/internal/sketch/binding"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/harness"
)

// SizeRequest carries container dimensions
type SizeRequest struct {
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

// CreateSketch starts a session. An empty body uses the default size.
func (h *Handlers) CreateSketch(c *gin.Context) {
	req := SizeRequest{Width: h.defaultWidth, Height: h.defaultHeight}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	s, err := h.manager.Create(req.Width, req.Height)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Info())
}

// ListSketches lists every session
func (h *Handlers) ListSketches(c *gin.Context) {
	sessions := h.manager.List()
	c.JSON(http.StatusOK, gin.H{
		"sketches": sessions,
		"count":    len(sessions),
	})
}

// GetSketch returns one session with harness stats and studio state
func (h *Handlers) GetSketch(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// DeleteSketch closes a session
func (h *Handlers) DeleteSketch(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.manager.Close(s.ID()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PutSource mounts the raw request body. An empty body unmounts.
// Sketch failures are reported in the response body, not the status.
func (h *Handlers) PutSource(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSourceBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "source too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(body) > 0 && !isText(body) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "source must be text, got " + mimetype.Detect(body).String(),
		})
		return
	}

	source, err := decodeSource(body, c.GetHeader("Content-Type"))
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	snap, err := s.Studio().Load(c.Request.Context(), source)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state": s.Harness().State(),
		"error": snap.Error,
	})
}

// DeleteSource unmounts the running sketch and forgets its code
func (h *Handlers) DeleteSource(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, err := s.Studio().Load(c.Request.Context(), ""); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.Harness().State()})
}

// Resize changes the container size
func (h *Handlers) Resize(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Resize(req.Width, req.Height); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"width": req.Width, "height": req.Height})
}

// DispatchEvent feeds one input event to the sketch
func (h *Handlers) DispatchEvent(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var ev binding.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ev.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type " + string(ev.Type)})
		return
	}

	handled := s.Harness().Dispatch(c.Request.Context(), ev)
	c.JSON(http.StatusOK, gin.H{
		"handled": handled,
		"state":   s.Harness().State(),
	})
}

// Frame returns the current surface as PNG
func (h *Handlers) Frame(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.Harness().WriteFrame(&buf); err != nil {
		if errors.Is(err, harness.ErrNoInstance) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

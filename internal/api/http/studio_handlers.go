package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PromptRequest asks the code source for a new or modified sketch
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// Prompt runs the generate or modify flow and mounts the result
func (h *Handlers) Prompt(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := s.Studio().Submit(c.Request.Context(), req.Prompt)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Fix repairs the current code using the recorded sketch error
func (h *Handlers) Fix(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	snap, err := s.Studio().Fix(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Clear forgets code, thoughts and error and unmounts the sketch
func (h *Handlers) Clear(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := s.Studio().Clear(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Studio().Snapshot())
}

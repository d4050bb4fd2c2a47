package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports that the process is serving.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunImport runs a forced import and returns its stats. The run outlives a dropped client
// connection so the catalogue is not left half imported.
func (h *Handler) RunImport(c *gin.Context) {
	stats, err := h.Importer.Run(context.WithoutCancel(c.Request.Context()), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

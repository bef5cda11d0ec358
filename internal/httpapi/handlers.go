package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
	"github.com/yungtweek/pollinations-proxy/internal/openai"
)

// ChatStreamer writes the SSE body for one chat request.
type ChatStreamer interface {
	Translate(ctx context.Context, req openai.ChatRequest, w io.Writer) error
}

type handler struct {
	cfg      config.Config
	streamer ChatStreamer
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Welcome to %s v%s. Service is running.", config.AppName, config.AppVersion),
	})
}

func (h *handler) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, openai.NewModelList(time.Now().Unix(), h.cfg.ModelOwner, h.cfg.DefaultModel))
}

// chatCompletions always answers with an SSE stream once the body parses. Anything that
// goes wrong after that is reported inside the stream.
func (h *handler) chatCompletions(c *gin.Context) {
	var req openai.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Errorw("[http] invalid chat request body", "err", err, "remote", c.ClientIP())
		abortDetail(c, http.StatusInternalServerError, "Internal server error: "+err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	// Headers are out; the translator only reports a vanished client here.
	if err := h.streamer.Translate(c.Request.Context(), req, c.Writer); err != nil {
		logger.Log.Infow("[http] stream aborted", "err", err, "remote", c.ClientIP())
	}
}

func notFound(c *gin.Context) {
	abortDetail(c, http.StatusNotFound, "Not Found")
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

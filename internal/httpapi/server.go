package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
)

// NewRouter wires the OpenAI-compatible routes. Auth runs ahead of every route, the
// not-found handler included.
func NewRouter(cfg config.Config, streamer ChatStreamer) *gin.Engine {
	h := &handler{cfg: cfg, streamer: streamer}

	r := gin.New()
	r.Use(recovery())
	if cfg.LogRequests {
		r.Use(requestLogger())
	}
	r.Use(MasterKeyAuth(cfg))

	r.GET("/", h.root)
	r.GET("/v1/models", h.listModels)
	r.POST("/v1/chat/completions", h.chatCompletions)
	r.NoRoute(notFound)

	return r
}

// Server wraps the HTTP listener for the proxy.
type Server struct {
	addr       string
	httpServer *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Serve serves on an existing listener. It blocks until Shutdown and returns nil then.
func (s *Server) Serve(lis net.Listener) error {
	logger.Log.Infow("[http] starting server", "addr", lis.Addr().String())
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Errorw("[http] server stopped with error", "err", err)
		return err
	}
	logger.Log.Info("[http] server stopped gracefully")
	return nil
}

// Shutdown stops accepting connections and waits for open streams until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Infow("[http] graceful stop", "addr", s.addr)
	return s.httpServer.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Infow("[http] request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds(),
			"remote", c.ClientIP(),
		)
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Log.Errorw("[http] panic", "path", c.Request.URL.Path, "err", err)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		abortDetail(c, http.StatusInternalServerError, "Internal server error")
	})
}

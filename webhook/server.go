// Package webhook exposes the HTTP surface that Telegram delivers
// updates to. Every request is written to the message audit log before
// the engine runs, and the response is always 200 so Telegram does not
// retry updates the bot already saw.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"idabot/bot"
	"idabot/core/config"
	"idabot/core/logger"
	"idabot/store"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Server handles inbound Telegram updates over HTTP.
type Server struct {
	engine      *bot.Engine
	messages    store.MessageStore
	secretToken string
	router      *gin.Engine
}

// NewServer builds the gin router. An empty secret token disables the
// request authentication check.
func NewServer(eng *bot.Engine, messages store.MessageStore, cfg config.TelegramConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:      eng,
		messages:    messages,
		secretToken: cfg.WebhookToken,
		router:      gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.router.POST("/telegram/webhook/", s.handleUpdate)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return s
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.WebhookConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Listen, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Web.InfoContext(ctx, "webhook server listening",
		slog.String("event", "web.listen"),
		slog.String("addr", addr),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (s *Server) handleUpdate(c *gin.Context) {
	ctx := c.Request.Context()

	if s.secretToken != "" && c.GetHeader(secretHeader) != s.secretToken {
		logger.Web.WarnContext(ctx, "webhook auth rejected",
			slog.String("event", "web.auth.reject"),
			slog.String("remote", c.ClientIP()),
		)
		c.JSON(http.StatusForbidden, gin.H{
			"status":  "error",
			"message": "Invalid token.",
		})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": "Message received.",
		})
		return
	}

	msgID, recErr := s.messages.RecordUpdate(ctx, raw)
	if recErr != nil {
		logger.Web.ErrorContext(ctx, "audit record failed",
			slog.String("event", "web.audit.fail"),
			slog.String("err", recErr.Error()),
		)
	}

	status := "ok"
	if err := s.engine.HandleUpdate(ctx, raw); err != nil {
		status = "error"
		logger.Web.ErrorContext(ctx, "update handling failed",
			slog.String("event", "web.update.fail"),
			slog.Int64("message_id", msgID),
			slog.String("err", err.Error()),
		)
		if recErr == nil {
			if serr := s.messages.SetError(ctx, msgID, err); serr != nil {
				logger.Web.ErrorContext(ctx, "audit error note failed",
					slog.String("event", "web.audit.fail"),
					slog.String("err", serr.Error()),
				)
			}
		}
	}

	// Telegram retries non-200 responses; handler failures are reported
	// in the body only.
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"message": "Message received.",
	})
}

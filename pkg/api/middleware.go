package api

import (
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	sessionUserKey = "user_id"
	ctxSessionUser = "sodium.session_user"
)

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Bytes("stack", debug.Stack()).
			Str("path", c.Request.URL.Path).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// sessionUser copies the session's user id, if any, into the gin context.
// An undecodable cookie is treated as no session.
func sessionUser(store sessions.Store, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, name)
		if err == nil {
			if uid, ok := sess.Values[sessionUserKey].(string); ok && uid != "" {
				c.Set(ctxSessionUser, uid)
			}
		}
		c.Next()
	}
}

func sessionUserID(c *gin.Context) string {
	return c.GetString(ctxSessionUser)
}

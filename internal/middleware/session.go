package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bluetecnologia/status_admin/internal/session"
)

const (
	SessionCookie = "ui_session"
	sessionKey    = "session"
)

// UISession attaches the browser's UI session to the request, creating one
// when the cookie is missing or unknown.
func UISession(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session
		if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
			sess, _ = reg.Get(id)
		}
		if sess == nil {
			sess = reg.Create()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session set by UISession.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

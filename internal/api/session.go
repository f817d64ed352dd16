// session.go - Browser session cookie middleware
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/spam-detector/webui/internal/models"
	"github.com/spam-detector/webui/internal/session"
)

// DefaultSessionCookie names the cookie carrying the session ID.
const DefaultSessionCookie = "spamui_session"

const sessionContextKey = "session"

// SessionMiddleware attaches the caller's session to the context, creating
// one and setting the cookie when the request carries none or an expired one.
func SessionMiddleware(mgr *session.Manager, cookieName string, maxAge time.Duration) echo.MiddlewareFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(cookieName); err == nil {
				id = cookie.Value
			}

			s, created := mgr.GetOrCreate(id)
			if created {
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    s.ID,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(sessionContextKey, s)
			return next(c)
		}
	}
}

// SessionNotices drains the caller's pending notices, if it has a session.
func SessionNotices(c echo.Context) []models.Notice {
	s, err := currentSession(c)
	if err != nil {
		return nil
	}
	return s.DrainNotices()
}

// currentSession returns the session attached by SessionMiddleware.
func currentSession(c echo.Context) (*session.Session, error) {
	s, ok := c.Get(sessionContextKey).(*session.Session)
	if !ok || s == nil {
		return nil, NewInternalError("no session on request", nil)
	}
	return s, nil
}

package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"resumeview/internal/app"
)

const (
	// SessionCookie names the cookie carrying the browser-session id.
	SessionCookie = "resumeview_session"
	// ShellLocalKey is the locals key holding the *app.Shell of the current request.
	ShellLocalKey = "shell"
)

// Session attaches the caller's shell to the request, starting a new session when the
// cookie is missing or has expired. The cookie outlives the idle window so the registry
// decides when a session ends.
func Session(sessions *app.Sessions, idle time.Duration) fiber.Handler {
	maxAge := 0
	if idle > 0 {
		maxAge = int((idle + time.Hour).Seconds())
	}
	return func(c *fiber.Ctx) error {
		cookie := utils.CopyString(c.Cookies(SessionCookie))
		sh, id := sessions.Get(cookie)
		if id != cookie {
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   maxAge,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(ShellLocalKey, sh)
		return c.Next()
	}
}

// GetShell returns the shell attached by Session, or nil.
func GetShell(c *fiber.Ctx) *app.Shell {
	sh, _ := c.Locals(ShellLocalKey).(*app.Shell)
	return sh
}

package ratelimit

import (
	xhttp "SymDir/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests over the client's budget with 429. Clients are
// keyed by their real IP.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}

package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	xutil "CascadeWatch/pkg/util"
)

// QueryTime parses a query parameter with util.ParseTime. A present but
// unparsable value yields a 400 AppError.
func QueryTime(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := xutil.ParseTime(raw)
	if !ok {
		return time.Time{}, NewAppError("ERR_INVALID_TIME", name, name+" must be RFC3339 or unix time", http.StatusBadRequest).
			WithParam("value", raw)
	}
	return t, nil
}

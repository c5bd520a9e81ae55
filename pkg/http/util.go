package http

import (
	"github.com/labstack/echo/v4"

	xutil "SegPull/pkg/util"
)

// QueryList collects a repeated query parameter, also splitting comma-separated values.
func QueryList(c echo.Context, name string) []string {
	return xutil.SplitList(c.QueryParams()[name]...)
}

// QueryBool reads a boolean query parameter, def when absent or invalid.
func QueryBool(c echo.Context, name string, def bool) bool {
	return xutil.ParseBoolDefault(c.QueryParam(name), def)
}

package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness probe.  It does not touch storage.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

package presenter

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Details []string `json:"details,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: payload})
}

func BadRequest(c echo.Context, err error) error {
	fmt.Println("Bad request:", err)
	return c.JSON(http.StatusBadRequest, envelope{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	fmt.Println("Bad request:", msg)
	return c.JSON(http.StatusBadRequest, envelope{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	fmt.Println("Not found:", msg)
	return c.JSON(http.StatusNotFound, envelope{Error: msg})
}

// Conflict reports an operation the current state refuses, like rolling
// back an ineligible history entry.
func Conflict(c echo.Context, msg string) error {
	fmt.Println("Conflict:", msg)
	return c.JSON(http.StatusConflict, envelope{Error: msg})
}

// ValidationFailed returns every violation found so the caller can fix
// the whole configuration in one pass.
func ValidationFailed(c echo.Context, violations []string) error {
	fmt.Println("Validation failed:", violations)
	return c.JSON(http.StatusUnprocessableEntity, envelope{
		Error:   "invalid field config",
		Details: violations,
	})
}

// UpstreamFailure reports a vendor-side error without taking the blame
// for it.
func UpstreamFailure(c echo.Context, err error) error {
	fmt.Println("Upstream failure:", err)
	return c.JSON(http.StatusBadGateway, envelope{Error: err.Error()})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, envelope{Error: err.Error()})
}

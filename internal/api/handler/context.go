package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/biblioteca/maestros-api/internal/api/middleware"
	"github.com/biblioteca/maestros-api/internal/core/domain"
)

// callerFrom builds the caller identity injected by the Auth middleware. A
// request that skipped the middleware yields a zero Caller, which the ledger
// service rejects as unauthenticated.
func callerFrom(c echo.Context) domain.Caller {
	id, _ := c.Get(middleware.ContextUserID).(string)
	name, _ := c.Get(middleware.ContextName).(string)
	role, _ := c.Get(middleware.ContextRole).(string)
	return domain.Caller{ID: id, Name: name, Role: domain.Role(role)}
}

// bindAndValidate decodes the request body into req and runs struct
// validation. Both failures are reported as validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("body", "is not a valid JSON payload")
	}
	return c.Validate(req)
}

package handler

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/errors"
)

// ok writes payload with success=true.
func ok(c echo.Context, status int, payload echo.Map) error {
	if payload == nil {
		payload = echo.Map{}
	}
	payload["success"] = true
	return c.JSON(status, payload)
}

// fail converts a service error into the JSON error envelope.
func fail(err error) error {
	return errors.MapErrorToHTTP(err).Echo()
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(req); err != nil {
		return errors.BadRequest(err.Error(), "VALIDATION_ERROR")
	}
	return nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.BadRequest("invalid user id", "INVALID_USER_ID")
	}
	return id, nil
}

func parseUintParam(c echo.Context, name, code string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.BadRequest("invalid "+name, code)
	}
	return uint(id), nil
}

// principal returns the authenticated caller. Routes using it sit behind the
// auth gate, so a missing principal means the gate was not installed.
func principal(c echo.Context) (*auth.Principal, error) {
	p, found := auth.PrincipalFrom(c)
	if !found {
		return nil, fail(errors.ErrUnauthenticated)
	}
	return p, nil
}

// pageQuery reads limit, offset and search from the query string.
func pageQuery(c echo.Context) (limit, offset int, search string, err error) {
	err = echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		String("search", &search).
		BindError()
	if err != nil {
		return 0, 0, "", errors.BadRequest("invalid pagination parameters", "INVALID_QUERY")
	}
	return limit, offset, search, nil
}

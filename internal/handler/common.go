package handler // handler implements the HTTP controllers over the pipeline

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/logger"
	"github.com/filmfest/catalogue-api/internal/pipeline"
)

// AuthHeader carries the opaque session token on authenticated requests.
const AuthHeader = "X-Authorization"

// token extracts the caller's session token; empty when absent.
func token(c echo.Context) string {
	return c.Request().Header.Get(AuthHeader)
}

// parseID parses the :id path parameter.
func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// respond translates a terminal pipeline outcome into its HTTP response.
// The controller only interprets the outcome; it never inspects errors
// from individual checks.
func respond(c echo.Context, out pipeline.Outcome) error {
	switch out.Kind {
	case pipeline.KindBadRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": out.Message})
	case pipeline.KindUnauthenticated:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": out.Message})
	case pipeline.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": out.Message})
	case pipeline.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": out.Message})
	case pipeline.KindInternal:
		logger.Log.Errorw("request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"err", out.Err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	default:
		// respond is only for terminal outcomes; an Allow here means a
		// handler forgot to write its own success response.
		logger.Log.Errorw("non-terminal outcome reached respond",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"kind", out.Kind)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// fail is shorthand for responding to an infrastructure fault.
func fail(c echo.Context, err error) error {
	return respond(c, pipeline.Fail(err))
}

// bindAndValidate is the schema shape check: the payload must conform to
// the declared field set and tags for the operation. Unknown fields are
// silently dropped by encoding/json rather than rejected; the validator's
// error text becomes the 400 body.
func bindAndValidate(c echo.Context, v any) pipeline.Outcome {
	if err := c.Bind(v); err != nil {
		return pipeline.BadRequest("invalid request body")
	}
	if err := c.Validate(v); err != nil {
		return pipeline.BadRequest(err.Error())
	}
	return pipeline.Allow()
}

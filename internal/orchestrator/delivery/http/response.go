package http

import (
	"net/http"
	"strconv"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// respondError writes err as an ErrorResponse with the status its code maps to.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	code := errs.CodeOf(err)
	status := errs.HTTPStatus(code)
	body := dto.ErrorResponse{Error: errs.MessageOf(err), Code: string(code)}
	if e, ok := errs.As(err); ok {
		body.Field = e.Field
		if e.HTTP != 0 {
			status = e.HTTP
		}
	}
	if status >= http.StatusInternalServerError {
		log.Error("Request failed",
			logger.ErrorField(err),
			logger.StringField("method", c.Request().Method),
			logger.StringField("path", c.Path()))
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: message, Code: string(errs.CodeValidation)})
}

// pathID parses the :id parameter.
func pathID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

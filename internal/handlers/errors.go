package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/grigden22/temnet-parser/internal/apperr"
	"github.com/grigden22/temnet-parser/internal/middleware"
	"github.com/grigden22/temnet-parser/internal/security"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// ErrorHandler renders errors returned by handlers.
//
// Status comes from apperr.Status, or from the code of a *fiber.Error (such
// as a 404 for an unknown route). Client errors keep their message. Server
// errors are logged with the request id and replaced by a generic message.
func ErrorHandler(logger *security.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.Status(err)
		message := err.Error()

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		} else if !apperr.Public(err) {
			logger.RequestError(middleware.RequestID(c), c.Method(), c.Path(), status, err)

			message = "internal server error"
			if status == fiber.StatusServiceUnavailable {
				message = "the archive is temporarily unavailable, please retry"
			}
		}

		return c.Status(status).JSON(ErrorResponse{
			Error:  message,
			Status: status,
		})
	}
}

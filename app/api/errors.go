package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"vidrag/types"
)

// ErrorHandler converts pipeline errors into caller-visible responses.
// Internal detail stays in the log, not in the body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiError, ok := err.(Error); ok {
		return c.Status(apiError.Code).JSON(apiError)
	}
	if valError, ok := err.(ValidationError); ok {
		return c.Status(valError.Status).JSON(valError)
	}

	switch {
	case errors.Is(err, types.ErrTranscriptUnavailable):
		return c.Status(fiber.StatusBadRequest).JSON(NewError(fiber.StatusBadRequest,
			"transcript not available in the required language or captions are disabled for this video"))
	case errors.Is(err, types.ErrEmptyTranscript):
		return c.Status(fiber.StatusBadRequest).JSON(NewError(fiber.StatusBadRequest,
			"the video transcript is empty"))
	case errors.Is(err, types.ErrIndexNotFound):
		return c.Status(fiber.StatusNotFound).JSON(NewError(fiber.StatusNotFound,
			"index not found, please index the video first"))
	case errors.Is(err, types.ErrIndexingFailed):
		log.Printf("[API] indexing failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(NewError(fiber.StatusBadGateway,
			"failed to index the video, try again later"))
	case errors.Is(err, types.ErrGenerationFailed):
		log.Printf("[API] generation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(NewError(fiber.StatusBadGateway,
			"failed to generate an answer, try again later"))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(NewError(fiberErr.Code, fiberErr.Message))
	}

	log.Printf("[API] request failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(
		NewError(fiber.StatusInternalServerError, "internal server error"))
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

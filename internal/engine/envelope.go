package engine

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// Page is the paginated listing payload, 1-based.
type Page struct {
	CurrentPage int              `json:"current_page"`
	Data        []map[string]any `json:"data"`
	PerPage     int              `json:"per_page"`
	Total       int64            `json:"total"`
	LastPage    int              `json:"last_page"`
	From        *int             `json:"from"`
	To          *int             `json:"to"`
}

// lastPage is 1 for an empty table.
func lastPage(total int64, perPage int) int64 {
	if total <= 0 {
		return 1
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}

func newPage(rows []map[string]any, page, perPage int, total int64) *Page {
	if rows == nil {
		rows = []map[string]any{}
	}
	p := &Page{
		CurrentPage: page,
		Data:        rows,
		PerPage:     perPage,
		Total:       total,
		LastPage:    int(lastPage(total, perPage)),
	}
	if len(rows) > 0 {
		from := (page-1)*perPage + 1
		to := from + len(rows) - 1
		p.From, p.To = &from, &to
	}
	return p
}

func respond(c *fiber.Ctx, status int, data any, msg string) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data, Message: msg})
}

func respondError(c *fiber.Ctx, appErr *AppError) error {
	return c.Status(appErr.Status).JSON(ErrorEnvelope{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Details,
	})
}

// ErrorHandler is the application error handler: domain errors keep their
// status, fiber errors keep theirs, anything else is logged and hidden
// behind INTERNAL_ERROR.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return respondError(c, appErr)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "FILE_TOO_LARGE"
		}
		return respondError(c, NewAppError(code, fe.Code, fe.Message))
	}
	slog.Error("unhandled error", "error", err, "method", c.Method(), "path", c.Path())
	return respondError(c, NewAppError("INTERNAL_ERROR", fiber.StatusInternalServerError, "Error interno del servidor"))
}

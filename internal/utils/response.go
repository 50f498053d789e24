package utils

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	Timestamp    string `json:"timestamp"`
	URL          string `json:"url"`
	Type         string `json:"type,omitempty"`
	VersionError bool   `json:"versionError,omitempty"`
}

// SuccessResponseStruct defines the schema for favorites collection writes
type SuccessResponseStruct struct {
	Message      string `json:"message"`
	Ok           bool   `json:"ok"`
	NewVersion   string `json:"newVersion"`
	Timestamp    string `json:"timestamp"`
	AffectedRows int64  `json:"affectedRows"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func sendError(c *fiber.Ctx, body ErrorResponseStruct) error {
	body.Timestamp = now()
	body.URL = c.OriginalURL()
	return c.Status(body.Status).JSON(body)
}

// ErrorResponse sends an error with a machine readable type
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return sendError(c, ErrorResponseStruct{Status: status, Message: message, Type: errorType})
}

// VersionErrorResponse tells a client its collection version is stale (409)
func VersionErrorResponse(c *fiber.Ctx) error {
	return sendError(c, ErrorResponseStruct{
		Status:       fiber.StatusConflict,
		Message:      "E_VERSION - Refresh and reconcile with current version and retry.",
		Type:         "version",
		VersionError: true,
	})
}

// NotFoundResponse sends a 404 for a missing user or collection document
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return sendError(c, ErrorResponseStruct{Status: fiber.StatusNotFound, Message: message, Type: "data.notfound"})
}

// MutationSuccessResponse reports the collection version after a write
func MutationSuccessResponse(c *fiber.Ctx, status int, newVersion uint64, affectedRows int64) error {
	return c.Status(status).JSON(SuccessResponseStruct{
		Message:      "Success",
		Ok:           true,
		NewVersion:   strconv.FormatUint(newVersion, 10),
		Timestamp:    now(),
		AffectedRows: affectedRows,
	})
}

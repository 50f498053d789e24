// common.go
//
// Favorites synchronization for the Proverbs application
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of proverbs-sync.
// proverbs-sync is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// proverbs-sync is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with proverbs-sync.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/types"
	"github.com/localnerve/proverbs-sync/internal/utils"
)

const maxCollectionNameLength = 128

// collectionParam validates the :collection route parameter
func collectionParam(c *fiber.Ctx) (string, error) {
	name := c.Params("collection")
	if name == "" || len(name) > maxCollectionNameLength {
		return "", &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid collection name",
			Type:    "data.validation.input",
		}
	}
	for _, r := range name {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: "Invalid collection name",
				Type:    "data.validation.input",
			}
		}
	}
	return name, nil
}

// collectionError maps service errors from collection routes to responses
func collectionError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return utils.NotFoundResponse(c, "User document not found, create it first")
	case errors.Is(err, services.ErrInvalidDocument):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.input")
	case errors.Is(err, services.ErrVersion):
		return utils.VersionErrorResponse(c)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// ErrorHandler renders errors that escape handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	var customErr *types.CustomError
	switch {
	case errors.As(err, &customErr):
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFoundHandler answers requests no route matched
func NotFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":    fiber.StatusNotFound,
		"message":   "[404] Resource Not Found",
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
	})
}

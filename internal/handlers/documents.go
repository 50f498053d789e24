// documents.go
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
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/types"
	"github.com/localnerve/proverbs-sync/internal/utils"
	"gorm.io/gorm"
)

// DocumentHandler handles per-user document routes
type DocumentHandler struct {
	DB *gorm.DB
}

// Register mounts the document routes on router behind the given auth handlers
func (h *DocumentHandler) Register(router fiber.Router, auth ...fiber.Handler) {
	route := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, auth...), handler)
	}

	router.Get("/users/:uid", route(h.GetUserDocument)...)
	router.Put("/users/:uid", route(h.PutUserDocument)...)
	router.Delete("/users/:uid", route(h.DeleteUserDocument)...)
	router.Get("/users/:uid/:collection", route(h.GetCollection)...)
	router.Post("/users/:uid/:collection", route(h.PostCollection)...)
	router.Delete("/users/:uid/:collection/:document", route(h.DeleteCollectionDocument)...)
}

// GetUserDocument handles GET /api/data/users/:uid
// @Summary Get user document
// @Description Get the root document for a user
// @Tags Documents
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} services.UserDocumentResult
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid} [get]
func (h *DocumentHandler) GetUserDocument(c *fiber.Ctx) error {
	userID := c.Params("uid")

	result, err := services.GetUserDocument(h.DB.WithContext(c.UserContext()), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("User document '%s' not found", userID))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "getUserDocument")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// PutUserDocument handles PUT /api/data/users/:uid
// @Summary Load or create user document
// @Description Create the root document for a user if it does not exist
// @Tags Documents
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} services.UserDocumentResult "Already existed"
// @Success 201 {object} services.UserDocumentResult "Created"
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid} [put]
func (h *DocumentHandler) PutUserDocument(c *fiber.Ctx) error {
	result, created, err := services.CreateUserDocument(h.DB.WithContext(c.UserContext()), c.Params("uid"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidDocument) {
			return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "putUserDocument")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// DeleteUserDocument handles DELETE /api/data/users/:uid
// @Summary Delete user document
// @Description Delete a user document and all of its collections
// @Tags Documents
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid} [delete]
func (h *DocumentHandler) DeleteUserDocument(c *fiber.Ctx) error {
	userID := c.Params("uid")

	affectedRows, err := services.DeleteUserDocument(h.DB.WithContext(c.UserContext()), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.NotFoundResponse(c, fmt.Sprintf("User document '%s' not found", userID))
		}
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "deleteUserDocument")
	}

	return utils.MutationSuccessResponse(c, fiber.StatusOK, 0, affectedRows)
}

// GetCollection handles GET /api/data/users/:uid/:collection?originIdentifier=...
// @Summary Get collection documents
// @Description Get the documents of a user collection, optionally filtered by origin identifier
// @Tags Documents
// @Produce json
// @Param uid path string true "User ID"
// @Param collection path string true "Collection name"
// @Param originIdentifier query string false "Only documents with this origin identifier"
// @Success 200 {object} services.CollectionResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid}/{collection} [get]
func (h *DocumentHandler) GetCollection(c *fiber.Ctx) error {
	collection, err := collectionParam(c)
	if err != nil {
		return err
	}

	result, err := services.GetCollectionDocuments(h.DB.WithContext(c.UserContext()), c.Params("uid"), collection, c.Query("originIdentifier"))
	if err != nil {
		return collectionError(c, err, "getCollection")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// PostCollection handles POST /api/data/users/:uid/:collection
// @Summary Upsert collection documents
// @Description Upsert one document or an array of documents into a user collection
// @Tags Documents
// @Accept json
// @Produce json
// @Param uid path string true "User ID"
// @Param collection path string true "Collection name"
// @Param body body []services.CollectionDocument true "One document or an array of documents"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid}/{collection} [post]
func (h *DocumentHandler) PostCollection(c *fiber.Ctx) error {
	collection, err := collectionParam(c)
	if err != nil {
		return err
	}

	var body types.FlexList[services.CollectionDocument]
	if err := c.BodyParser(&body); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	newVersion, affectedRows, err := services.SetCollectionDocuments(h.DB.WithContext(c.UserContext()), c.Params("uid"), collection, body.Slice())
	if err != nil {
		return collectionError(c, err, "postCollection")
	}

	return utils.MutationSuccessResponse(c, fiber.StatusOK, newVersion, affectedRows)
}

// DeleteCollectionDocument handles DELETE /api/data/users/:uid/:collection/:document
// @Summary Delete collection document
// @Description Delete one document from a user collection. Missing documents are not an error.
// @Tags Documents
// @Produce json
// @Param uid path string true "User ID"
// @Param collection path string true "Collection name"
// @Param document path string true "Document ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /data/users/{uid}/{collection}/{document} [delete]
func (h *DocumentHandler) DeleteCollectionDocument(c *fiber.Ctx) error {
	collection, err := collectionParam(c)
	if err != nil {
		return err
	}

	newVersion, affectedRows, err := services.DeleteCollectionDocument(h.DB.WithContext(c.UserContext()), c.Params("uid"), collection, c.Params("document"))
	if err != nil {
		return collectionError(c, err, "deleteCollectionDocument")
	}

	return utils.MutationSuccessResponse(c, fiber.StatusOK, newVersion, affectedRows)
}

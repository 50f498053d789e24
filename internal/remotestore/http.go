package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/proverbs-sync/internal/middleware"
	"github.com/localnerve/proverbs-sync/internal/services"
	"github.com/localnerve/proverbs-sync/internal/types"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// HTTPBackend talks to the document service API as the session's user.
// BaseURL is the data API root, e.g. https://example.com/api/data
// Log is optional.
type HTTPBackend struct {
	BaseURL string
	Session string
	Timeout time.Duration
	Log     logrus.FieldLogger
}

type collectionResponse struct {
	Version   types.FlexUint64              `json:"version"`
	Documents []services.CollectionDocument `json:"documents"`
}

func (h *HTTPBackend) GetUser(ctx context.Context, userID string) (*services.UserDocumentResult, error) {
	var doc services.UserDocumentResult
	if err := h.do(ctx, fiber.MethodGet, h.userURL(userID), nil, services.ErrNotFound, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (h *HTTPBackend) CreateUser(ctx context.Context, userID string) (*services.UserDocumentResult, error) {
	var doc services.UserDocumentResult
	if err := h.do(ctx, fiber.MethodPut, h.userURL(userID), nil, services.ErrNotFound, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (h *HTTPBackend) ListDocuments(ctx context.Context, userID, collection, originIdentifier string) ([]services.CollectionDocument, error) {
	target := h.collectionURL(userID, collection)
	if originIdentifier != "" {
		target += "?originIdentifier=" + url.QueryEscape(originIdentifier)
	}

	var result collectionResponse
	if err := h.do(ctx, fiber.MethodGet, target, nil, services.ErrUserNotFound, &result); err != nil {
		return nil, err
	}
	if result.Documents == nil {
		result.Documents = []services.CollectionDocument{}
	}
	if h.Log != nil {
		h.Log.WithFields(logrus.Fields{
			"collection": collection,
			"version":    result.Version.Uint64(),
			"documents":  len(result.Documents),
		}).Debug("Read remote collection")
	}
	return result.Documents, nil
}

func (h *HTTPBackend) PutDocuments(ctx context.Context, userID, collection string, docs []services.CollectionDocument) error {
	return h.do(ctx, fiber.MethodPost, h.collectionURL(userID, collection), docs, services.ErrUserNotFound, nil)
}

func (h *HTTPBackend) DeleteDocument(ctx context.Context, userID, collection, documentID string) error {
	target := h.collectionURL(userID, collection) + "/" + url.PathEscape(documentID)
	return h.do(ctx, fiber.MethodDelete, target, nil, services.ErrUserNotFound, nil)
}

func (h *HTTPBackend) userURL(userID string) string {
	return h.BaseURL + "/users/" + url.PathEscape(userID)
}

func (h *HTTPBackend) collectionURL(userID, collection string) string {
	return h.userURL(userID) + "/" + url.PathEscape(collection)
}

// timeout is the configured timeout, shortened to the context deadline
func (h *HTTPBackend) timeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	return timeout, nil
}

// do sends one request. A 404 is reported as notFound, other failures
// as *types.CustomError built from the service's error body.
// Canceling ctx returns at once; the abandoned request runs until its timeout.
func (h *HTTPBackend) do(ctx context.Context, method, target string, body interface{}, notFound error, out interface{}) error {
	timeout, err := h.timeout(ctx)
	if err != nil {
		return err
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodGet:
		agent = fiber.Get(target)
	case fiber.MethodPut:
		agent = fiber.Put(target)
	case fiber.MethodPost:
		agent = fiber.Post(target)
	case fiber.MethodDelete:
		agent = fiber.Delete(target)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	agent.Cookie(middleware.SessionCookie, h.Session).
		Set("X-Api-Version", middleware.APIVersion).
		Timeout(timeout)
	if body != nil {
		agent.JSON(body)
	}

	type reply struct {
		code int
		body []byte
		errs []error
	}
	replies := make(chan reply, 1)
	go func() {
		code, body, errs := agent.Bytes()
		replies <- reply{code: code, body: body, errs: errs}
	}()

	var r reply
	select {
	case r = <-replies:
	case <-ctx.Done():
		return fmt.Errorf("%s %s: %w", method, target, ctx.Err())
	}
	code, resp := r.code, r.body
	if len(r.errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, target, errors.Join(r.errs...))
	}

	switch {
	case code == fiber.StatusNotFound:
		return notFound
	case code == fiber.StatusConflict:
		return services.ErrVersion
	case code < 200 || code > 299:
		return responseError(code, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("%s %s: invalid response: %w", method, target, err)
	}
	return nil
}

func responseError(code int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = string(body)
	}
	return &types.CustomError{Code: code, Message: payload.Message, Type: payload.Type}
}

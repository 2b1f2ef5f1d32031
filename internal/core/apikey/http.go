// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/aihub/internal/platform/request"
	"github.com/taibuivan/aihub/internal/platform/respond"
)

// Handler serves the operator key management endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the key endpoints. The caller must guard them with operator auth.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/generate-api-key", handler.generate)
	router.Get("/api-keys", handler.list)
	router.Delete("/api-keys/{id}", handler.delete)
}

/*
POST /ai-tools/v1/generate-api-key.

Request (Body):
  - name: string (required)
  - description: string
  - rate_limit: int (defaults to 1000)

Response:
  - 201: Generated (the only response that carries the full api_key)
  - 400: validation_error
*/
func (handler *Handler) generate(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input GenerateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	generated, err := handler.service.Generate(request.Context(), input, claims.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, generated)
}

// GET /ai-tools/v1/api-keys
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	views, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, views, len(views))
}

// DELETE /ai-tools/v1/api-keys/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Message(writer, "API key deleted")
}

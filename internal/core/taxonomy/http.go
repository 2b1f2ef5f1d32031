// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aihub/internal/platform/respond"
)

// Handler serves the term listings.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the listings on an existing router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/categories", handler.listCategories)
	router.Get("/tags", handler.listTags)
}

/*
GET /ai-tools/v1/categories.

Response:
  - 200: []Term: Categories with published tool counts, largest first
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	terms, err := handler.service.ListCategories(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, terms, len(terms))
}

/*
GET /ai-tools/v1/tags.

Response:
  - 200: []Term: Up to 50 tags, most used first
*/
func (handler *Handler) listTags(writer http.ResponseWriter, request *http.Request) {
	terms, err := handler.service.ListTags(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, terms, len(terms))
}

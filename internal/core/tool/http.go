// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tool

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/aihub/internal/platform/request"
	"github.com/taibuivan/aihub/internal/platform/respond"
	"github.com/taibuivan/aihub/pkg/pagination"
)

// Handler serves the catalog read endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the read endpoints on an existing router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/test", handler.test)
	router.Get("/stats", handler.stats)

	router.Route("/tools", func(tools chi.Router) {
		tools.Get("/", handler.listTools)
		tools.Get("/random", handler.randomTools)
		tools.Get("/popular", handler.popularTools)
		tools.Get("/by-url", handler.toolByURL)
		tools.Get("/{id}", handler.getTool)
	})
}

/*
GET /ai-tools/v1/tools.

Request (Query):
  - page, per_page: Pagination (per_page defaults to 20, max 100)
  - search: Substring match on title, excerpt and content
  - category: Category slug

Response:
  - 200: []Flat with pagination metadata and X-Total-Count / X-Total-Pages headers
*/
func (handler *Handler) listTools(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	page, err := handler.service.List(request.Context(), catalog.Filter{
		Search:       query.Get("search"),
		CategorySlug: query.Get("category"),
	}, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set(constants.HeaderTotalCount, strconv.Itoa(page.Meta.Total))
	writer.Header().Set(constants.HeaderTotalPages, strconv.Itoa(page.Meta.TotalPages))
	respond.Paginated(writer, page.Tools, page.Meta)
}

/*
GET /ai-tools/v1/tools/{id}.

Response:
  - 200: Flat
  - 404: not_found
*/
func (handler *Handler) getTool(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tool, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tool)
}

// GET /ai-tools/v1/tools/by-url?url=
func (handler *Handler) toolByURL(writer http.ResponseWriter, request *http.Request) {
	tool, err := handler.service.ByURL(request.Context(), request.URL.Query().Get("url"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, tool)
}

// GET /ai-tools/v1/tools/random?count= (default 5, max 20)
func (handler *Handler) randomTools(writer http.ResponseWriter, request *http.Request) {
	tools, err := handler.service.Random(request.Context(), requestutil.QueryInt(request, "count", DefaultRandomCount))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, tools, len(tools))
}

// GET /ai-tools/v1/tools/popular?count= (default 10, max 50)
func (handler *Handler) popularTools(writer http.ResponseWriter, request *http.Request) {
	tools, err := handler.service.Popular(request.Context(), requestutil.QueryInt(request, "count", DefaultPopularCount))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, tools, len(tools))
}

// GET /ai-tools/v1/stats
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// testResponse confirms that the caller's key works.
type testResponse struct {
	App     string `json:"app"`
	Version string `json:"version"`
	KeyName string `json:"key_name,omitempty"`
}

// GET /ai-tools/v1/test
func (handler *Handler) test(writer http.ResponseWriter, request *http.Request) {
	response := testResponse{App: constants.AppName, Version: constants.AppVersion}
	if principal := ctxutil.GetKeyPrincipal(request.Context()); principal != nil {
		response.KeyName = principal.Name
	}

	respond.JSON(writer, http.StatusOK, respond.SuccessEnvelope{
		Success:   true,
		Data:      response,
		Message:   "API connection successful",
		Timestamp: respond.Now(),
	})
}

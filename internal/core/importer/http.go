// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aihub/internal/core/normalize"
	requestutil "github.com/taibuivan/aihub/internal/platform/request"
	"github.com/taibuivan/aihub/internal/platform/respond"
	"github.com/taibuivan/aihub/internal/platform/validate"
)

// Handler serves the import endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the import endpoints on an existing router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/import", handler.importTool)
	router.Post("/batch-import", handler.batchImport)
}

// # Envelopes

// importResponse keeps the flat shape import clients already parse.
type importResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	PostID    int64    `json:"post_id"`
	ToolName  string   `json:"tool_name"`
	Status    Status   `json:"status"`
	Updated   bool     `json:"updated"`
	Warnings  []string `json:"warnings"`
	Timestamp string   `json:"timestamp"`
}

type batchRequest struct {
	Tools []normalize.Flat `json:"tools"`
}

type batchResponse struct {
	Success   bool         `json:"success"`
	Summary   Summary      `json:"summary"`
	Results   []ItemResult `json:"results"`
	Timestamp string       `json:"timestamp"`
}

// # Handlers

/*
POST /ai-tools/v1/import.

Request:
  - tool_data: Flat record, product_name required
  - post_id, update_mode: Optional direct update target

Response:
  - 200: importResponse
  - 400: validation_error
  - 404: not_found when update_mode names an unknown post_id
*/
func (handler *Handler) importTool(writer http.ResponseWriter, request *http.Request) {
	var input Request
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Import(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusOK, importResponse{
		Success:   true,
		Message:   result.Message(),
		PostID:    result.ToolID,
		ToolName:  result.ToolName,
		Status:    result.Status,
		Updated:   result.Status == StatusUpdated,
		Warnings:  result.Warnings,
		Timestamp: respond.Now(),
	})
}

/*
POST /ai-tools/v1/batch-import.

Request:
  - tools: []Flat, processed in order

Response:
  - 200: batchResponse with one result per input item
  - 400: validation_error when the list is missing or empty
*/
func (handler *Handler) batchImport(writer http.ResponseWriter, request *http.Request) {
	var input batchRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(input.Tools) == 0 {
		respond.Error(writer, request, validate.RequiredError("tools", "Tool data list must not be empty"))
		return
	}

	batch := handler.service.ImportBatch(request.Context(), input.Tools)

	respond.JSON(writer, http.StatusOK, batchResponse{
		Success:   true,
		Summary:   batch.Summary,
		Results:   batch.Results,
		Timestamp: respond.Now(),
	})
}

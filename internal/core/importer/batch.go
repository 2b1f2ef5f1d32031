// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/platform/apperr"
)

// unnamedTool labels batch items that carry no product name.
const unnamedTool = "Unknown"

// Summary counts the outcomes of a batch.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// ItemResult is the outcome of one batch item. Errors holds the warnings of a
// successful item or the failure reasons of a failed one.
type ItemResult struct {
	Index    int      `json:"index"`
	ToolName string   `json:"tool_name"`
	Success  bool     `json:"success"`
	Status   Status   `json:"status,omitempty"`
	Message  string   `json:"message"`
	ToolID   *int64   `json:"post_id"`
	Errors   []string `json:"errors"`
}

// BatchResult holds one result per input item, in input order.
type BatchResult struct {
	Summary Summary      `json:"summary"`
	Results []ItemResult `json:"results"`
}

/*
ImportBatch imports items sequentially.

Description: Items are processed strictly in input order with the configured
pause between them. A failing or panicking item never stops the loop. When
the context ends, the remaining items are reported as failed so the result
list always matches the input one to one.
*/
func (service *Service) ImportBatch(context context.Context, items []normalize.Flat) *BatchResult {
	batch := &BatchResult{
		Summary: Summary{Total: len(items)},
		Results: make([]ItemResult, 0, len(items)),
	}

	for index, item := range items {
		var result ItemResult
		if err := context.Err(); err != nil {
			result = failedItem(index, item, fmt.Errorf("batch aborted: %w", err))
		} else {
			result = service.importItem(context, index, item)
		}

		batch.Results = append(batch.Results, result)
		if result.Success {
			batch.Summary.Success++
		} else {
			batch.Summary.Errors++
		}

		if index < len(items)-1 {
			service.pause(context)
		}
	}

	service.logger.InfoContext(context, "batch_import_finished",
		slog.Int("total", batch.Summary.Total),
		slog.Int("success", batch.Summary.Success),
		slog.Int("errors", batch.Summary.Errors),
	)
	return batch
}

// importItem runs one item and converts failures, panics included, into a result.
func (service *Service) importItem(context context.Context, index int, item normalize.Flat) (result ItemResult) {
	defer func() {
		if recovered := recover(); recovered != nil {
			service.logger.ErrorContext(context, "batch_import_item_panic",
				slog.Int("index", index),
				slog.Any("panic", recovered),
				slog.String("stack", string(debug.Stack())),
			)
			result = failedItem(index, item, fmt.Errorf("unexpected failure: %v", recovered))
		}
	}()

	imported, err := service.ImportOne(context, item)
	if err != nil {
		service.logger.WarnContext(context, "batch_import_item_failed",
			slog.Int("index", index),
			slog.String("tool_name", item.ProductName),
			slog.String("error", err.Error()),
		)
		return failedItem(index, item, err)
	}

	id := imported.ToolID
	return ItemResult{
		Index:    index,
		ToolName: imported.ToolName,
		Success:  true,
		Status:   imported.Status,
		Message:  imported.Message(),
		ToolID:   &id,
		Errors:   imported.Warnings,
	}
}

// pause waits for the item delay unless the context ends first.
func (service *Service) pause(context context.Context) {
	if service.options.ItemDelay <= 0 {
		return
	}

	timer := time.NewTimer(service.options.ItemDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-context.Done():
	}
}

func failedItem(index int, item normalize.Flat, err error) ItemResult {
	name := item.ProductName
	if name == "" {
		name = unnamedTool
	}

	reasons := []string{err.Error()}
	if appError := apperr.As(err); appError != nil {
		for _, detail := range appError.Details {
			reasons = append(reasons, detail.Field+": "+detail.Message)
		}
	}

	return ItemResult{
		Index:    index,
		ToolName: name,
		Success:  false,
		Message:  err.Error(),
		Errors:   reasons,
	}
}

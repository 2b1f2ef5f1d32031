// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/core/catalog/catalogtest"
	"github.com/taibuivan/aihub/internal/core/importer"
	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/core/taxonomy"
)

/*
TestImportBatch_IsolatesFailures checks the one-result-per-item contract.
*/
func TestImportBatch_IsolatesFailures(t *testing.T) {
	f := newFixture()

	batch := f.service.ImportBatch(context.Background(), []normalize.Flat{
		{ProductName: "First"},
		{ProductName: ""},
		{ProductName: "Third"},
	})

	require.Len(t, batch.Results, 3)
	assert.Equal(t, importer.Summary{Total: 3, Success: 2, Errors: 1}, batch.Summary)

	for index, result := range batch.Results {
		assert.Equal(t, index, result.Index)
	}
	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.True(t, batch.Results[2].Success)

	assert.Equal(t, "Unknown", batch.Results[1].ToolName)
	assert.Nil(t, batch.Results[1].ToolID)
	assert.Contains(t, batch.Results[1].Errors, "product_name: This field is required")

	require.NotNil(t, batch.Results[2].ToolID)
	assert.Equal(t, importer.StatusCreated, batch.Results[2].Status)
	assert.Equal(t, 2, f.store.RecordCount())
}

/*
TestImportBatch_RecoversPanics keeps going after an item blows up.
*/
func TestImportBatch_RecoversPanics(t *testing.T) {
	f := newFixture()
	f.acquirer.panicOn = "https://bad.example/logo.png"

	batch := f.service.ImportBatch(context.Background(), []normalize.Flat{
		{ProductName: "Bad", LogoImgURL: "https://bad.example/logo.png"},
		{ProductName: "Good"},
	})

	require.Len(t, batch.Results, 2)
	assert.False(t, batch.Results[0].Success)
	assert.Contains(t, batch.Results[0].Message, "decoder exploded")
	assert.True(t, batch.Results[1].Success)
}

/*
TestImportBatch_Cancelled reports the untouched items as failed.
*/
func TestImportBatch_Cancelled(t *testing.T) {
	store := catalogtest.New()
	service := importer.NewService(store, &fakeAcquirer{}, taxonomy.NewService(store, discardLogger()), nil,
		importer.Options{ItemDelay: time.Hour}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	started := time.Now()
	batch := service.ImportBatch(ctx, []normalize.Flat{{ProductName: "A"}, {ProductName: "B"}, {ProductName: "C"}})

	assert.Less(t, time.Since(started), 5*time.Second)
	require.Len(t, batch.Results, 3)
	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.False(t, batch.Results[2].Success)
	assert.Equal(t, 1, store.RecordCount())
}

/*
TestImportBatch_Pacing waits between items but not after the last one.
*/
func TestImportBatch_Pacing(t *testing.T) {
	store := catalogtest.New()
	service := importer.NewService(store, &fakeAcquirer{}, taxonomy.NewService(store, discardLogger()), nil,
		importer.Options{ItemDelay: 30 * time.Millisecond}, discardLogger())

	started := time.Now()
	batch := service.ImportBatch(context.Background(), []normalize.Flat{{ProductName: "A"}, {ProductName: "B"}, {ProductName: "C"}})

	assert.Equal(t, 3, batch.Summary.Success)
	assert.GreaterOrEqual(t, time.Since(started), 60*time.Millisecond)
}

// # Handlers

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	importer.NewHandler(f.service).RegisterRoutes(router)
	return router
}

func post(t *testing.T, handler http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

func TestHandler_Import(t *testing.T) {
	f := newFixture()
	router := newRouter(f)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"created", map[string]any{"tool_data": map[string]any{"product_name": "Acme", "category": "AI Writing Assistant"}}, http.StatusOK, ""},
		{"missing name", map[string]any{"tool_data": map[string]any{"category": "Chat"}}, http.StatusBadRequest, "validation_error"},
		{"unknown update target", map[string]any{"tool_data": map[string]any{"product_name": "X"}, "post_id": 404, "update_mode": true}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, body := post(t, router, "/import", tt.body)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantCode != "" {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Acme", body["tool_name"])
			assert.Equal(t, "created", body["status"])
			assert.NotZero(t, body["post_id"])
		})
	}
}

func TestHandler_BatchImport(t *testing.T) {
	f := newFixture()
	router := newRouter(f)

	recorder, body := post(t, router, "/batch-import", map[string]any{
		"tools": []map[string]any{{"product_name": "One"}, {"product_name": ""}},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total"])
	assert.Equal(t, float64(1), summary["success"])
	assert.Equal(t, float64(1), summary["errors"])
	assert.Len(t, body["results"], 2)

	recorder, body = post(t, router, "/batch-import", map[string]any{"tools": []any{}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "validation_error", body["code"])
}

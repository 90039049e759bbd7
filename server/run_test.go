// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innatives/geocoding-app-v2/pipeline"
	"github.com/innatives/geocoding-app-v2/tabular"
)

func testTable() *tabular.Table {
	return &tabular.Table{
		Header: []string{"Name", "Address"},
		Rows:   [][]string{{"HQ", "1 Main St"}},
	}
}

func TestUploadLifecycle(t *testing.T) {
	upload := newUpload("u1", "places.csv", testTable())
	assert.Equal(t, StatusPending, upload.Status())
	assert.False(t, upload.Status().Terminal())

	_, ok := upload.Result()
	assert.False(t, ok)

	ctx, err := upload.begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, upload.Status())
	require.NoError(t, ctx.Err())

	_, err = upload.begin(context.Background())
	assert.ErrorIs(t, err, errAlreadyStarted)

	result := &tabular.Table{Header: []string{"Name", "Address", "Latitude", "Longitude"}}
	upload.complete(result, &pipeline.Tally{TotalRows: 1, ProcessedRows: 1})

	assert.Equal(t, StatusCompleted, upload.Status())
	assert.True(t, upload.Status().Terminal())

	got, ok := upload.Result()
	require.True(t, ok)
	assert.Equal(t, result, got)

	view := upload.View()
	assert.Equal(t, 1.0, view.Fraction)
	assert.Equal(t, 1, view.Tally.ProcessedRows)
}

func TestUploadRequestCancel(t *testing.T) {
	upload := newUpload("u1", "places.csv", testTable())

	// Nothing to cancel before the run starts.
	assert.False(t, upload.requestCancel())

	ctx, err := upload.begin(context.Background())
	require.NoError(t, err)

	require.True(t, upload.requestCancel())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	// The status only moves once the run goroutine unwinds.
	assert.Equal(t, StatusRunning, upload.Status())

	upload.markCanceled(testTable(), &pipeline.Tally{TotalRows: 1})
	assert.Equal(t, StatusCanceled, upload.Status())
	assert.False(t, upload.requestCancel())

	_, ok := upload.Result()
	assert.True(t, ok)
}

func TestUploadFail(t *testing.T) {
	upload := newUpload("u1", "places.csv", testTable())

	_, err := upload.begin(context.Background())
	require.NoError(t, err)

	upload.fail("boom")
	assert.Equal(t, StatusFailed, upload.Status())
	assert.Equal(t, "boom", upload.View().Error)

	_, ok := upload.Result()
	assert.False(t, ok)
}

func TestUploadView(t *testing.T) {
	upload := newUpload("u1", "places.csv", testTable())

	view := upload.View()
	assert.Equal(t, "u1", view.ID)
	assert.Equal(t, "places.csv", view.Filename)
	assert.Equal(t, []string{"Name", "Address"}, view.Header)
	assert.Equal(t, 1, view.TotalRows)
	assert.Equal(t, StatusPending, view.Status)
	assert.Nil(t, view.Tally)
}

func TestStore(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	upload := newUpload("u1", "places.csv", testTable())
	store.Add(upload)

	got, ok := store.Get("u1")
	require.True(t, ok)
	assert.Same(t, upload, got)
}

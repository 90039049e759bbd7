// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"sync"

	"github.com/innatives/geocoding-app-v2/pipeline"
	"github.com/innatives/geocoding-app-v2/tabular"
)

// RunStatus tracks the lifecycle of an upload's geocoding run.
type RunStatus string

const (
	StatusPending   RunStatus = "PENDING"
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusCanceled  RunStatus = "CANCELED"
	StatusFailed    RunStatus = "FAILED"
)

// Terminal reports whether the run reached a final state.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusFailed
}

var errAlreadyStarted = errors.New("geocoding already started for this upload")

// Upload is one uploaded table together with the state of its geocoding
// run. Every run goes through at most one PENDING to RUNNING transition;
// CANCELED runs keep the partial result produced so far.
type Upload struct {
	ID       string
	Filename string

	mu       sync.RWMutex
	table    *tabular.Table
	status   RunStatus
	fraction float64
	result   *tabular.Table
	tally    *pipeline.Tally
	errMsg   string
	cancel   context.CancelFunc
}

func newUpload(id, filename string, table *tabular.Table) *Upload {
	return &Upload{ID: id, Filename: filename, table: table, status: StatusPending}
}

// Table returns the decoded input table.
func (u *Upload) Table() *tabular.Table {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return u.table
}

// Status returns the current run status.
func (u *Upload) Status() RunStatus {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return u.status
}

// begin transitions the upload to RUNNING and returns the context the run
// must use. It fails once a run has already been started.
func (u *Upload) begin(parent context.Context) (context.Context, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.status != StatusPending {
		return nil, errAlreadyStarted
	}

	ctx, cancel := context.WithCancel(parent)
	u.status = StatusRunning
	u.cancel = cancel

	return ctx, nil
}

// requestCancel asks a running geocoding run to stop. The status moves to
// CANCELED once the run actually unwinds.
func (u *Upload) requestCancel() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.status != StatusRunning || u.cancel == nil {
		return false
	}

	u.cancel()

	return true
}

func (u *Upload) setFraction(fraction float64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.fraction = fraction
}

func (u *Upload) complete(result *tabular.Table, tally *pipeline.Tally) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.status = StatusCompleted
	u.fraction = 1
	u.result = result
	u.tally = tally
	u.releaseCancel()
}

func (u *Upload) markCanceled(result *tabular.Table, tally *pipeline.Tally) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.status = StatusCanceled
	u.result = result
	u.tally = tally
	u.releaseCancel()
}

func (u *Upload) fail(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.status = StatusFailed
	u.errMsg = message
	u.releaseCancel()
}

// releaseCancel runs with u.mu held.
func (u *Upload) releaseCancel() {
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
}

// Result returns the augmented table once the run produced one. Both
// completed and canceled runs have results; canceled ones hold the rows
// handled before the cancellation.
func (u *Upload) Result() (*tabular.Table, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.result == nil {
		return nil, false
	}

	return u.result, true
}

// UploadView is the API snapshot of an upload.
type UploadView struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	Header    []string        `json:"header"`
	TotalRows int             `json:"total_rows"`
	Status    RunStatus       `json:"status"`
	Fraction  float64         `json:"fraction"`
	Tally     *pipeline.Tally `json:"tally,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// View snapshots the upload for API responses.
func (u *Upload) View() UploadView {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return UploadView{
		ID:        u.ID,
		Filename:  u.Filename,
		Header:    u.table.Header,
		TotalRows: len(u.table.Rows),
		Status:    u.status,
		Fraction:  u.fraction,
		Tally:     u.tally,
		Error:     u.errMsg,
	}
}

// Store keeps uploads in memory for the lifetime of the process.
type Store struct {
	mu      sync.RWMutex
	uploads map[string]*Upload
}

func NewStore() *Store {
	return &Store{uploads: make(map[string]*Upload)}
}

func (s *Store) Add(u *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads[u.ID] = u
}

func (s *Store) Get(id string) (*Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.uploads[id]

	return u, ok
}

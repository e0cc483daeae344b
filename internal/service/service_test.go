package service

import (
	"context"
	"sync"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/reference"
)

type fakeSource struct {
	table *reference.Table
	err   error
	loads int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(context.Context) (*reference.Table, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) all() []*domain.AuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.AuditLog(nil), f.entries...)
}

type fakeReferenceRepo struct {
	stored []reference.Entry
	err    error
}

func (f *fakeReferenceRepo) List(context.Context) ([]reference.Range, error) {
	rows := make([]reference.Range, len(f.stored))
	for i, e := range f.stored {
		rows[i] = reference.NewRange(i+1, e)
	}
	return rows, nil
}

func (f *fakeReferenceRepo) ReplaceAll(_ context.Context, entries []reference.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.stored = entries
	return nil
}

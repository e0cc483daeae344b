package reference

import (
	"context"
	"os"
)

// Source builds a fresh Table for one document. Every failure is reported as
// a *DataLoadError.
type Source interface {
	Load(ctx context.Context) (*Table, error)
	Name() string
}

type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string {
	return "csv:" + s.Path
}

func (s *FileSource) Load(_ context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &DataLoadError{Source: s.Path, Err: err}
	}
	defer f.Close()

	return LoadCSV(s.Path, f)
}

// RepositorySource reads the table from a Repository on every Load.
type RepositorySource struct {
	repo Repository
}

func NewRepositorySource(repo Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (s *RepositorySource) Name() string {
	return "postgres:clinical.reference_ranges"
}

func (s *RepositorySource) Load(ctx context.Context) (*Table, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, &DataLoadError{Source: s.Name(), Err: err}
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.Entry()
		if err != nil {
			return nil, &DataLoadError{Source: s.Name(), Line: r.Position, Err: err}
		}
		entries = append(entries, e)
	}

	table, err := NewTable(entries)
	if err != nil {
		return nil, &DataLoadError{Source: s.Name(), Err: err}
	}
	return table, nil
}

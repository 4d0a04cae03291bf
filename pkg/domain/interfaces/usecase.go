package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/djmitche/mapper/pkg/domain/model"
)

// ImportResult summarizes a bulk mapfile import.
type ImportResult struct {
	BatchID  string `json:"batch_id"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
}

// MapperUseCase defines the operations exposed over HTTP and the CLI.
type MapperUseCase interface {
	// GetRev resolves a changeset (or unique prefix) in the named VCS to
	// its mapping within the given projects.
	GetRev(ctx context.Context, projects []string, vcs model.VCS, changeset string) (*model.Mapping, error)

	// FullMapfile renders the complete mapfile for the given projects,
	// or for all projects when the slice is empty.
	FullMapfile(ctx context.Context, projects []string) (string, error)

	// MapfileSince renders the mapfile restricted to mappings created at
	// or after since.
	MapfileSince(ctx context.Context, projects []string, since time.Time) (string, error)

	// InsertOne stores a single hg/git mapping and returns the stored row.
	InsertOne(ctx context.Context, project, hgChangeset, gitChangeset string) (*model.Mapping, error)

	// ImportMapfile bulk-inserts mapfile lines read from r into project.
	ImportMapfile(ctx context.Context, project string, r io.Reader, ignoreDups bool) (*ImportResult, error)

	// AddProject creates a new project.
	AddProject(ctx context.Context, name string) (*model.Project, error)
}

package interfaces

import (
	"context"
	"time"

	"github.com/djmitche/mapper/pkg/domain/model"
)

// Repository defines persistence operations for projects and revision
// mappings. Implementations report failures with the model error tags
// (not_found, conflict) so callers can classify them.
type Repository interface {
	// AddProject creates a project, failing with a conflict error if the
	// name is already taken.
	AddProject(ctx context.Context, name string) (*model.Project, error)

	// GetProject looks up a project by name, failing with a not_found
	// error for unknown names.
	GetProject(ctx context.Context, name string) (*model.Project, error)

	// FindRev returns the first mapping in the given projects whose
	// changeset in the named VCS starts with prefix.
	FindRev(ctx context.Context, projects []string, vcs model.VCS, prefix string) (*model.Mapping, error)

	// ListMappings returns all mappings for the given projects ordered by
	// git changeset. A nil or empty projects slice selects all projects;
	// a non-nil since restricts to mappings with DateAdded >= since.
	ListMappings(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error)

	// InsertMapping stores a single mapping, failing with a conflict
	// error when either changeset is already mapped in the project.
	InsertMapping(ctx context.Context, m *model.Mapping) error

	// InsertMappings stores a batch of mappings for one project. With
	// ignoreDups, existing mappings are skipped and the rest inserted;
	// without it, any duplicate fails the whole batch with a conflict
	// error and nothing is stored. Returns the number inserted.
	InsertMappings(ctx context.Context, project string, mappings []*model.Mapping, ignoreDups bool) (int, error)

	// Close releases the underlying store.
	Close() error
}

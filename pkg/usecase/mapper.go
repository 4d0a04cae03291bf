package usecase

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/djmitche/mapper/pkg/domain/interfaces"
	"github.com/djmitche/mapper/pkg/domain/model"
)

type mapperUseCase struct {
	repo interfaces.Repository
}

// NewMapper creates a new instance of MapperUseCase backed by repo.
func NewMapper(repo interfaces.Repository) interfaces.MapperUseCase {
	return &mapperUseCase{repo: repo}
}

// GetRev resolves a changeset or prefix in the named VCS to its mapping.
func (uc *mapperUseCase) GetRev(ctx context.Context, projects []string, vcs model.VCS, changeset string) (*model.Mapping, error) {
	if err := model.ValidateChangeset(changeset, false); err != nil {
		return nil, err
	}
	return uc.repo.FindRev(ctx, projects, vcs, changeset)
}

// FullMapfile renders the complete mapfile for the given projects, or all
// projects when the slice is empty.
func (uc *mapperUseCase) FullMapfile(ctx context.Context, projects []string) (string, error) {
	return uc.buildMapfile(ctx, projects, nil)
}

// MapfileSince renders the mapfile restricted to mappings created at or
// after since.
func (uc *mapperUseCase) MapfileSince(ctx context.Context, projects []string, since time.Time) (string, error) {
	return uc.buildMapfile(ctx, projects, &since)
}

func (uc *mapperUseCase) buildMapfile(ctx context.Context, projects []string, since *time.Time) (string, error) {
	mappings, err := uc.repo.ListMappings(ctx, projects, since)
	if err != nil {
		return "", err
	}
	contents := model.RenderMapfile(mappings)
	if contents == "" {
		return "", goerr.New("no mappings found",
			goerr.V("projects", projects), goerr.T(model.ErrTagNotFound))
	}
	return contents, nil
}

// InsertOne stores a single hg/git mapping and returns the stored row.
func (uc *mapperUseCase) InsertOne(ctx context.Context, project, hgChangeset, gitChangeset string) (*model.Mapping, error) {
	if err := model.ValidateChangeset(hgChangeset, true); err != nil {
		return nil, err
	}
	if err := model.ValidateChangeset(gitChangeset, true); err != nil {
		return nil, err
	}

	m := &model.Mapping{
		ProjectName:  project,
		HgChangeset:  hgChangeset,
		GitChangeset: gitChangeset,
		DateAdded:    time.Now().UTC(),
	}
	if err := uc.repo.InsertMapping(ctx, m); err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Info("Inserted mapping",
		"project", project,
		"hg_changeset", hgChangeset,
		"git_changeset", gitChangeset,
	)
	return m, nil
}

// ImportMapfile bulk-inserts mapfile lines read from r into project.
// Lines that do not split into exactly two fields (mapfile headers and
// footers) are skipped.
func (uc *mapperUseCase) ImportMapfile(ctx context.Context, project string, r io.Reader, ignoreDups bool) (*interfaces.ImportResult, error) {
	logger := ctxlog.From(ctx)
	batchID := uuid.NewString()

	var mappings []*model.Mapping
	skipped := 0
	now := time.Now().UTC()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		hg, git, ok := model.ParseMapfileLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		if err := model.ValidateChangeset(hg, true); err != nil {
			return nil, goerr.Wrap(err, "bad hg changeset in mapfile", goerr.V("batch_id", batchID))
		}
		if err := model.ValidateChangeset(git, true); err != nil {
			return nil, goerr.Wrap(err, "bad git changeset in mapfile", goerr.V("batch_id", batchID))
		}
		mappings = append(mappings, &model.Mapping{
			ProjectName:  project,
			HgChangeset:  hg,
			GitChangeset: git,
			DateAdded:    now,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read mapfile", goerr.V("batch_id", batchID))
	}

	inserted, err := uc.repo.InsertMappings(ctx, project, mappings, ignoreDups)
	if err != nil {
		return nil, err
	}
	// With ignoreDups, rows skipped as duplicates also count as skipped.
	skipped += len(mappings) - inserted

	logger.Info("Imported mapfile",
		"batch_id", batchID,
		"project", project,
		"inserted", inserted,
		"skipped", skipped,
		"ignore_dups", ignoreDups,
	)
	return &interfaces.ImportResult{
		BatchID:  batchID,
		Inserted: inserted,
		Skipped:  skipped,
	}, nil
}

// AddProject creates a new project.
func (uc *mapperUseCase) AddProject(ctx context.Context, name string) (*model.Project, error) {
	p, err := uc.repo.AddProject(ctx, name)
	if err != nil {
		return nil, err
	}
	ctxlog.From(ctx).Info("Created project", "project", name)
	return p, nil
}

package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/djmitche/mapper/pkg/domain/model"
	"github.com/djmitche/mapper/pkg/usecase"
)

// MockRepository is a hand-rolled Repository for exercising the use case
// without a database.
type MockRepository struct {
	findRevFunc        func(ctx context.Context, projects []string, vcs model.VCS, prefix string) (*model.Mapping, error)
	listMappingsFunc   func(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error)
	insertMappingFunc  func(ctx context.Context, m *model.Mapping) error
	insertMappingsFunc func(ctx context.Context, project string, mappings []*model.Mapping, ignoreDups bool) (int, error)

	insertedBatches [][]*model.Mapping
}

func (m *MockRepository) AddProject(ctx context.Context, name string) (*model.Project, error) {
	return &model.Project{ID: 1, Name: name}, nil
}

func (m *MockRepository) GetProject(ctx context.Context, name string) (*model.Project, error) {
	return &model.Project{ID: 1, Name: name}, nil
}

func (m *MockRepository) FindRev(ctx context.Context, projects []string, vcs model.VCS, prefix string) (*model.Mapping, error) {
	if m.findRevFunc != nil {
		return m.findRevFunc(ctx, projects, vcs, prefix)
	}
	return nil, goerr.New("mock not configured")
}

func (m *MockRepository) ListMappings(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error) {
	if m.listMappingsFunc != nil {
		return m.listMappingsFunc(ctx, projects, since)
	}
	return nil, nil
}

func (m *MockRepository) InsertMapping(ctx context.Context, mapping *model.Mapping) error {
	if m.insertMappingFunc != nil {
		return m.insertMappingFunc(ctx, mapping)
	}
	return nil
}

func (m *MockRepository) InsertMappings(ctx context.Context, project string, mappings []*model.Mapping, ignoreDups bool) (int, error) {
	m.insertedBatches = append(m.insertedBatches, mappings)
	if m.insertMappingsFunc != nil {
		return m.insertMappingsFunc(ctx, project, mappings, ignoreDups)
	}
	return len(mappings), nil
}

func (m *MockRepository) Close() error { return nil }

func TestGetRev_ValidatesChangeset(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{}
	uc := usecase.NewMapper(repo)

	_, err := uc.GetRev(ctx, []string{"alpha"}, model.VCSGit, "not-hex!")
	if !goerr.HasTag(err, model.ErrTagBadRequest) {
		t.Errorf("GetRev() error = %v, want bad_request", err)
	}
}

func TestGetRev_Found(t *testing.T) {
	ctx := context.Background()
	want := &model.Mapping{
		ProjectName:  "alpha",
		HgChangeset:  strings.Repeat("a", 40),
		GitChangeset: strings.Repeat("b", 40),
	}
	repo := &MockRepository{
		findRevFunc: func(ctx context.Context, projects []string, vcs model.VCS, prefix string) (*model.Mapping, error) {
			gt.Value(t, vcs).Equal(model.VCSGit)
			gt.Value(t, prefix).Equal("bbbb")
			return want, nil
		},
	}
	uc := usecase.NewMapper(repo)

	got, err := uc.GetRev(ctx, []string{"alpha"}, model.VCSGit, "bbbb")
	if err != nil {
		t.Fatalf("GetRev() failed: %v", err)
	}
	gt.Value(t, got).Equal(want)
}

func TestFullMapfile_EmptyIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{
		listMappingsFunc: func(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error) {
			return nil, nil
		},
	}
	uc := usecase.NewMapper(repo)

	_, err := uc.FullMapfile(ctx, []string{"alpha"})
	if !goerr.HasTag(err, model.ErrTagNotFound) {
		t.Errorf("FullMapfile() error = %v, want not_found", err)
	}
}

func TestMapfileSince_PassesThreshold(t *testing.T) {
	ctx := context.Background()
	threshold := time.Date(2015, 4, 7, 0, 0, 0, 0, time.UTC)

	var gotSince *time.Time
	repo := &MockRepository{
		listMappingsFunc: func(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error) {
			gotSince = since
			return []*model.Mapping{
				{HgChangeset: strings.Repeat("a", 40), GitChangeset: strings.Repeat("b", 40)},
			}, nil
		},
	}
	uc := usecase.NewMapper(repo)

	contents, err := uc.MapfileSince(ctx, []string{"alpha"}, threshold)
	if err != nil {
		t.Fatalf("MapfileSince() failed: %v", err)
	}
	if gotSince == nil || !gotSince.Equal(threshold) {
		t.Errorf("MapfileSince() passed since = %v, want %v", gotSince, threshold)
	}
	gt.Value(t, contents).Equal(strings.Repeat("a", 40) + " " + strings.Repeat("b", 40) + "\n")
}

func TestInsertOne_ValidatesBothChangesets(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepository{}
	uc := usecase.NewMapper(repo)

	full := strings.Repeat("a", 40)

	tests := []struct {
		name string
		hg   string
		git  string
	}{
		{name: "Short hg changeset", hg: "abc", git: full},
		{name: "Short git changeset", hg: full, git: "abc"},
		{name: "Non-hex hg changeset", hg: strings.Repeat("z", 40), git: full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.InsertOne(ctx, "alpha", tt.hg, tt.git)
			if !goerr.HasTag(err, model.ErrTagBadRequest) {
				t.Errorf("InsertOne() error = %v, want bad_request", err)
			}
		})
	}
}

func TestInsertOne_Success(t *testing.T) {
	ctx := context.Background()
	var stored *model.Mapping
	repo := &MockRepository{
		insertMappingFunc: func(ctx context.Context, m *model.Mapping) error {
			stored = m
			return nil
		},
	}
	uc := usecase.NewMapper(repo)

	hg := strings.Repeat("a", 40)
	git := strings.Repeat("b", 40)

	got, err := uc.InsertOne(ctx, "alpha", hg, git)
	if err != nil {
		t.Fatalf("InsertOne() failed: %v", err)
	}
	gt.Value(t, got).Equal(stored)
	gt.Value(t, got.ProjectName).Equal("alpha")
	if got.DateAdded.IsZero() {
		t.Error("InsertOne() should stamp DateAdded")
	}
}

func TestImportMapfile(t *testing.T) {
	ctx := context.Background()
	hg1 := strings.Repeat("1", 40)
	git1 := strings.Repeat("2", 40)
	hg2 := strings.Repeat("3", 40)
	git2 := strings.Repeat("4", 40)

	t.Run("Headers and footers are skipped", func(t *testing.T) {
		repo := &MockRepository{}
		uc := usecase.NewMapper(repo)

		body := "# mapfile header\n" +
			hg1 + " " + git1 + "\n" +
			hg2 + " " + git2 + "\n" +
			"footer\n"

		result, err := uc.ImportMapfile(ctx, "alpha", strings.NewReader(body), false)
		if err != nil {
			t.Fatalf("ImportMapfile() failed: %v", err)
		}
		gt.Number(t, result.Inserted).Equal(2)
		gt.Number(t, result.Skipped).Equal(2)
		if result.BatchID == "" {
			t.Error("ImportMapfile() should assign a batch id")
		}
		gt.Number(t, len(repo.insertedBatches)).Equal(1)
	})

	t.Run("Malformed changeset is a bad request", func(t *testing.T) {
		repo := &MockRepository{}
		uc := usecase.NewMapper(repo)

		_, err := uc.ImportMapfile(ctx, "alpha", strings.NewReader("short "+git1+"\n"), false)
		if !goerr.HasTag(err, model.ErrTagBadRequest) {
			t.Errorf("ImportMapfile() error = %v, want bad_request", err)
		}
	})

	t.Run("Duplicate skips counted with ignoreDups", func(t *testing.T) {
		repo := &MockRepository{
			insertMappingsFunc: func(ctx context.Context, project string, mappings []*model.Mapping, ignoreDups bool) (int, error) {
				gt.Value(t, ignoreDups).Equal(true)
				return 1, nil // one of two was a duplicate
			},
		}
		uc := usecase.NewMapper(repo)

		body := hg1 + " " + git1 + "\n" + hg2 + " " + git2 + "\n"
		result, err := uc.ImportMapfile(ctx, "alpha", strings.NewReader(body), true)
		if err != nil {
			t.Fatalf("ImportMapfile() failed: %v", err)
		}
		gt.Number(t, result.Inserted).Equal(1)
		gt.Number(t, result.Skipped).Equal(1)
	})
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/djmitche/mapper/pkg/domain/interfaces"
	"github.com/djmitche/mapper/pkg/domain/model"
)

// schema mirrors the mapper tables: a projects namespace and one row per
// hg/git changeset pair. Both changeset columns are unique per project.
const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS hashes (
    project_id    INTEGER NOT NULL REFERENCES projects(id),
    hg_changeset  TEXT NOT NULL,
    git_changeset TEXT NOT NULL,
    date_added    INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS project_id__hg_changeset
    ON hashes (project_id, hg_changeset);
CREATE UNIQUE INDEX IF NOT EXISTS project_id__git_changeset
    ON hashes (project_id, git_changeset);
CREATE INDEX IF NOT EXISTS project_id__date_added
    ON hashes (project_id, date_added);
`

type client struct {
	db *sql.DB
}

// New opens a SQLite database with the pure-Go driver and ensures the
// schema exists. Pass ":memory:" for an in-memory database.
func New(ctx context.Context, dsn string) (interfaces.Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("dsn", dsn))
	}

	// An in-memory database exists per connection; keep the pool at one
	// so every query sees the same database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to configure sqlite database")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to create schema")
	}

	return &client{db: db}, nil
}

func (c *client) Close() error {
	return c.db.Close()
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure, which signals a duplicate project or mapping.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func (c *client) AddProject(ctx context.Context, name string) (*model.Project, error) {
	res, err := c.db.ExecContext(ctx, "INSERT INTO projects (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerr.New("project already exists",
				goerr.V("project", name), goerr.T(model.ErrTagConflict))
		}
		return nil, goerr.Wrap(err, "failed to insert project", goerr.V("project", name))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get project id")
	}
	return &model.Project{ID: id, Name: name}, nil
}

func (c *client) GetProject(ctx context.Context, name string) (*model.Project, error) {
	var p model.Project
	err := c.db.QueryRowContext(ctx,
		"SELECT id, name FROM projects WHERE name = ?", name).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.New("project not found",
			goerr.V("project", name), goerr.T(model.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query project", goerr.V("project", name))
	}
	return &p, nil
}

// changesetColumn maps a VCS to the column holding its changesets.
func changesetColumn(vcs model.VCS) string {
	if vcs == model.VCSGit {
		return "git_changeset"
	}
	return "hg_changeset"
}

// placeholders returns a "?, ?, ..." list of n SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (c *client) FindRev(ctx context.Context, projects []string, vcs model.VCS, prefix string) (*model.Mapping, error) {
	query := `SELECT p.name, h.hg_changeset, h.git_changeset, h.date_added
		FROM hashes h JOIN projects p ON p.id = h.project_id
		WHERE p.name IN (` + placeholders(len(projects)) + `)
		AND h.` + changesetColumn(vcs) + ` LIKE ? || '%' LIMIT 1`

	args := make([]any, 0, len(projects)+1)
	for _, p := range projects {
		args = append(args, p)
	}
	args = append(args, prefix)

	var m model.Mapping
	var dateAdded int64
	err := c.db.QueryRowContext(ctx, query, args...).
		Scan(&m.ProjectName, &m.HgChangeset, &m.GitChangeset, &dateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.New("revision not found",
			goerr.V("vcs", vcs), goerr.V("changeset", prefix), goerr.T(model.ErrTagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query revision")
	}
	m.DateAdded = time.Unix(dateAdded, 0).UTC()
	return &m, nil
}

func (c *client) ListMappings(ctx context.Context, projects []string, since *time.Time) ([]*model.Mapping, error) {
	query := `SELECT p.name, h.hg_changeset, h.git_changeset, h.date_added
		FROM hashes h JOIN projects p ON p.id = h.project_id`
	var conds []string
	var args []any

	if len(projects) > 0 {
		conds = append(conds, "p.name IN ("+placeholders(len(projects))+")")
		for _, p := range projects {
			args = append(args, p)
		}
	}
	if since != nil {
		conds = append(conds, "h.date_added >= ?")
		args = append(args, since.Unix())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY h.git_changeset"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query mappings")
	}
	defer rows.Close()

	var mappings []*model.Mapping
	for rows.Next() {
		var m model.Mapping
		var dateAdded int64
		if err := rows.Scan(&m.ProjectName, &m.HgChangeset, &m.GitChangeset, &dateAdded); err != nil {
			return nil, goerr.Wrap(err, "failed to scan mapping row")
		}
		m.DateAdded = time.Unix(dateAdded, 0).UTC()
		mappings = append(mappings, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate mapping rows")
	}
	return mappings, nil
}

func (c *client) InsertMapping(ctx context.Context, m *model.Mapping) error {
	proj, err := c.GetProject(ctx, m.ProjectName)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT INTO hashes (project_id, hg_changeset, git_changeset, date_added) VALUES (?, ?, ?, ?)",
		proj.ID, m.HgChangeset, m.GitChangeset, m.DateAdded.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.New("mapping already exists",
				goerr.V("project", m.ProjectName),
				goerr.V("hg_changeset", m.HgChangeset),
				goerr.V("git_changeset", m.GitChangeset),
				goerr.T(model.ErrTagConflict))
		}
		return goerr.Wrap(err, "failed to insert mapping")
	}
	return nil
}

func (c *client) InsertMappings(ctx context.Context, project string, mappings []*model.Mapping, ignoreDups bool) (int, error) {
	proj, err := c.GetProject(ctx, project)
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmtSQL := "INSERT INTO hashes (project_id, hg_changeset, git_changeset, date_added) VALUES (?, ?, ?, ?)"
	if ignoreDups {
		stmtSQL = "INSERT OR IGNORE INTO hashes (project_id, hg_changeset, git_changeset, date_added) VALUES (?, ?, ?, ?)"
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range mappings {
		res, err := stmt.ExecContext(ctx, proj.ID, m.HgChangeset, m.GitChangeset, m.DateAdded.Unix())
		if err != nil {
			if isUniqueViolation(err) {
				return 0, goerr.New("some of the given mappings already exist",
					goerr.V("project", project),
					goerr.V("hg_changeset", m.HgChangeset),
					goerr.T(model.ErrTagConflict))
			}
			return 0, goerr.Wrap(err, "failed to insert mapping")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count inserted rows")
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, goerr.Wrap(err, "failed to commit mappings")
	}
	return inserted, nil
}

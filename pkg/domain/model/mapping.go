package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// VCS identifies a version control system side of a mapping.
type VCS string

const (
	VCSGit VCS = "git"
	VCSHg  VCS = "hg"
)

// ParseVCS validates a vcs route parameter.
func ParseVCS(s string) (VCS, error) {
	switch VCS(s) {
	case VCSGit:
		return VCSGit, nil
	case VCSHg:
		return VCSHg, nil
	default:
		return "", goerr.New("unknown vcs type", goerr.V("vcs", s), goerr.T(ErrTagBadRequest))
	}
}

// Project is a named namespace for mappings.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Mapping relates one hg changeset to one git changeset within a project.
// Mappings are immutable once stored and are never deleted.
type Mapping struct {
	ProjectName  string
	HgChangeset  string
	GitChangeset string
	DateAdded    time.Time
}

// MarshalJSON emits the wire form of a mapping row, with date_added as
// unix seconds.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"hg_changeset":  m.HgChangeset,
		"git_changeset": m.GitChangeset,
		"date_added":    m.DateAdded.Unix(),
		"project_name":  m.ProjectName,
	})
}

// Line renders the mapping as a mapfile line without the trailing newline.
func (m *Mapping) Line() string {
	return m.HgChangeset + " " + m.GitChangeset
}

// RenderMapfile serializes mappings as mapfile text, one line per mapping.
// Returns "" for an empty set.
func RenderMapfile(mappings []*Mapping) string {
	if len(mappings) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, m := range mappings {
		sb.WriteString(m.Line())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseMapfileLine splits a mapfile line into its hg and git changesets.
// Lines that do not consist of exactly two fields (mapfile headers and
// footers) report ok=false and are skipped by callers.
func ParseMapfileLine(line string) (hg, git string, ok bool) {
	fields := strings.Split(strings.TrimSpace(line), " ")
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

var changesetRegex = regexp.MustCompile(`^[a-f0-9]{1,40}$`)

// ChangesetLength is the length of a full sha1 changeset in hex.
const ChangesetLength = 40

// ValidateChangeset checks that s is a well-formed changeset. Inserts
// require a full 40-character sha (exact=true); lookups accept any
// non-empty prefix.
func ValidateChangeset(s string, exact bool) error {
	if !changesetRegex.MatchString(s) {
		return goerr.New("malformed changeset", goerr.V("changeset", s), goerr.T(ErrTagBadRequest))
	}
	if exact && len(s) != ChangesetLength {
		return goerr.New("changeset must be 40 characters", goerr.V("changeset", s), goerr.T(ErrTagBadRequest))
	}
	return nil
}

// ParseProjects splits a comma-delimited project route argument, the way
// queries are combined across projects.
func ParseProjects(arg string) []string {
	return strings.Split(arg, ",")
}

// sinceLayouts are the accepted timestamp forms for mapfile/since, tried
// in order. All are interpreted as UTC when no zone is given.
var sinceLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseSince parses a since route argument: one of sinceLayouts, or unix
// epoch seconds.
func ParseSince(s string) (time.Time, error) {
	for _, layout := range sinceLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if epoch, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, goerr.New("invalid since timestamp", goerr.V("since", s), goerr.T(ErrTagBadRequest))
}

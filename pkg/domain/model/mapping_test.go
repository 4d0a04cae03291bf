package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/djmitche/mapper/pkg/domain/model"
)

func TestValidateChangeset(t *testing.T) {
	full := strings.Repeat("ab12", 10)

	tests := []struct {
		name      string
		changeset string
		exact     bool
		wantErr   bool
	}{
		{
			name:      "Full sha, exact",
			changeset: full,
			exact:     true,
			wantErr:   false,
		},
		{
			name:      "Full sha, prefix mode",
			changeset: full,
			exact:     false,
			wantErr:   false,
		},
		{
			name:      "Short prefix allowed in prefix mode",
			changeset: "abc123",
			exact:     false,
			wantErr:   false,
		},
		{
			name:      "Short prefix rejected in exact mode",
			changeset: "abc123",
			exact:     true,
			wantErr:   true,
		},
		{
			name:      "Uppercase hex rejected",
			changeset: strings.ToUpper(full),
			exact:     true,
			wantErr:   true,
		},
		{
			name:      "Non-hex characters rejected",
			changeset: "xyz",
			exact:     false,
			wantErr:   true,
		},
		{
			name:      "Empty string rejected",
			changeset: "",
			exact:     false,
			wantErr:   true,
		},
		{
			name:      "Too long rejected",
			changeset: full + "ab",
			exact:     false,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := model.ValidateChangeset(tt.changeset, tt.exact)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChangeset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !goerr.HasTag(err, model.ErrTagBadRequest) {
				t.Errorf("ValidateChangeset() error is missing bad_request tag: %v", err)
			}
		})
	}
}

func TestParseVCS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.VCS
		wantErr bool
	}{
		{name: "git", input: "git", want: model.VCSGit},
		{name: "hg", input: "hg", want: model.VCSHg},
		{name: "unknown vcs", input: "svn", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseVCS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVCS() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVCS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMapfileLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantHg string
		wantGi string
		wantOk bool
	}{
		{
			name:   "Well-formed line",
			line:   "deadbeef cafef00d",
			wantHg: "deadbeef",
			wantGi: "cafef00d",
			wantOk: true,
		},
		{
			name:   "Trailing whitespace trimmed",
			line:   "deadbeef cafef00d\r",
			wantHg: "deadbeef",
			wantGi: "cafef00d",
			wantOk: true,
		},
		{
			name:   "Mapfile header skipped",
			line:   "# this is a header",
			wantOk: false,
		},
		{
			name:   "Single field skipped",
			line:   "deadbeef",
			wantOk: false,
		},
		{
			name:   "Empty line skipped",
			line:   "",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hg, git, ok := model.ParseMapfileLine(tt.line)
			if ok != tt.wantOk {
				t.Fatalf("ParseMapfileLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && (hg != tt.wantHg || git != tt.wantGi) {
				t.Errorf("ParseMapfileLine() = (%q, %q), want (%q, %q)", hg, git, tt.wantHg, tt.wantGi)
			}
		})
	}
}

func TestRenderMapfile(t *testing.T) {
	mappings := []*model.Mapping{
		{HgChangeset: "aaaa", GitChangeset: "1111"},
		{HgChangeset: "bbbb", GitChangeset: "2222"},
	}

	got := model.RenderMapfile(mappings)
	want := "aaaa 1111\nbbbb 2222\n"
	if got != want {
		t.Errorf("RenderMapfile() = %q, want %q", got, want)
	}

	if model.RenderMapfile(nil) != "" {
		t.Error("RenderMapfile(nil) should be empty")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "RFC3339",
			input: "2015-04-07T23:34:39Z",
			want:  time.Date(2015, 4, 7, 23, 34, 39, 0, time.UTC),
		},
		{
			name:  "Datetime without zone",
			input: "2015-04-07T23:34:39",
			want:  time.Date(2015, 4, 7, 23, 34, 39, 0, time.UTC),
		},
		{
			name:  "Space-separated datetime",
			input: "2015-04-07 23:34:39",
			want:  time.Date(2015, 4, 7, 23, 34, 39, 0, time.UTC),
		},
		{
			name:  "Date only",
			input: "2015-04-07",
			want:  time.Date(2015, 4, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "Unix epoch seconds",
			input: "1428449679",
			want:  time.Unix(1428449679, 0).UTC(),
		},
		{
			name:    "Garbage",
			input:   "next tuesday",
			wantErr: true,
		},
		{
			name:    "Empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ParseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSince() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !goerr.HasTag(err, model.ErrTagBadRequest) {
					t.Errorf("ParseSince() error is missing bad_request tag: %v", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMappingLine(t *testing.T) {
	m := &model.Mapping{
		HgChangeset:  "deadbeef",
		GitChangeset: "cafef00d",
	}
	if m.Line() != "deadbeef cafef00d" {
		t.Errorf("Line() = %q", m.Line())
	}
}

package http

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/djmitche/mapper/pkg/domain/interfaces"
	"github.com/djmitche/mapper/pkg/domain/model"
)

// MapperHandler serves revision lookups, mapfile dumps, and mapping
// inserts.
type MapperHandler struct {
	mapperUC interfaces.MapperUseCase
}

// NewMapperHandler creates a new MapperHandler
func NewMapperHandler(mapperUC interfaces.MapperUseCase) *MapperHandler {
	return &MapperHandler{mapperUC: mapperUC}
}

// writeMapfile writes mapfile contents as flat text.
func writeMapfile(w http.ResponseWriter, contents string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(contents)) //nolint:errcheck
}

// HandleGetRev translates a git or hg changeset (or unique prefix) to its
// counterpart, responding with "<hg_changeset> <git_changeset>".
func (h *MapperHandler) HandleGetRev(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vcs, err := model.ParseVCS(chi.URLParam(r, "vcs"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	projects := model.ParseProjects(chi.URLParam(r, "project"))

	mapping, err := h.mapperUC.GetRev(ctx, projects, vcs, chi.URLParam(r, "changeset"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(mapping.Line())) //nolint:errcheck
}

// HandleFullMapfile serves the full mapfile for the project(s).
func (h *MapperHandler) HandleFullMapfile(w http.ResponseWriter, r *http.Request) {
	projects := model.ParseProjects(chi.URLParam(r, "project"))

	contents, err := h.mapperUC.FullMapfile(r.Context(), projects)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeMapfile(w, contents)
}

// HandleCombinedMapfile serves the mapfile combined across all projects.
func (h *MapperHandler) HandleCombinedMapfile(w http.ResponseWriter, r *http.Request) {
	contents, err := h.mapperUC.FullMapfile(r.Context(), nil)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeMapfile(w, contents)
}

// HandleMapfileSince serves the mapfile restricted to mappings created at
// or after the given timestamp.
func (h *MapperHandler) HandleMapfileSince(w http.ResponseWriter, r *http.Request) {
	since, err := model.ParseSince(chi.URLParam(r, "since"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	projects := model.ParseProjects(chi.URLParam(r, "project"))

	contents, err := h.mapperUC.MapfileSince(r.Context(), projects, since)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeMapfile(w, contents)
}

// HandleCombinedMapfileSince serves the since-filtered mapfile combined
// across all projects.
func (h *MapperHandler) HandleCombinedMapfileSince(w http.ResponseWriter, r *http.Request) {
	since, err := model.ParseSince(chi.URLParam(r, "since"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	contents, err := h.mapperUC.MapfileSince(r.Context(), nil, since)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeMapfile(w, contents)
}

// HandleInsertOne inserts a single mapping and responds with the stored
// row as JSON.
func (h *MapperHandler) HandleInsertOne(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.mapperUC.InsertOne(r.Context(),
		chi.URLParam(r, "project"),
		chi.URLParam(r, "hg_changeset"),
		chi.URLParam(r, "git_changeset"),
	)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, mapping)
}

// HandleInsertMany returns a handler that bulk-inserts mapfile lines from
// a text/plain request body.
func (h *MapperHandler) HandleInsertMany(ignoreDups bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "text/plain" {
			handleError(w, r, goerr.New("content-type must be text/plain",
				goerr.V("content_type", r.Header.Get("Content-Type")),
				goerr.T(model.ErrTagBadRequest)))
			return
		}
		defer r.Body.Close()

		result, err := h.mapperUC.ImportMapfile(r.Context(), chi.URLParam(r, "project"), r.Body, ignoreDups)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, result)
	}
}

// HandleAddProject creates a new project.
func (h *MapperHandler) HandleAddProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.mapperUC.AddProject(r.Context(), chi.URLParam(r, "project"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, project)
}

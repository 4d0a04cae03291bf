package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so the HTTP layer can map them to status
// codes without inspecting error strings.
var (
	ErrTagNotFound     = goerr.NewTag("not_found")
	ErrTagBadRequest   = goerr.NewTag("bad_request")
	ErrTagConflict     = goerr.NewTag("conflict")
	ErrTagUnauthorized = goerr.NewTag("unauthorized")
)

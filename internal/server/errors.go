// Package server provides the HTTP REST API for the sales intelligence agent.
package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/sales-intel/internal/crm"
	"github.com/jonathan/sales-intel/internal/generators"
	"github.com/jonathan/sales-intel/internal/pipeline"
	"github.com/jonathan/sales-intel/internal/sources"
	"github.com/jonathan/sales-intel/internal/store"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
// Stage errors are mapped by their cause.
func HTTPStatus(err error) int {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return HTTPStatus(stageErr.Err)
	}

	var (
		reqErr     *generators.RequestError
		missingErr *generators.MissingDependencyError
		schemaErr  *generators.SchemaParseError
		upErr      *generators.UpstreamError
		parseErr   *crm.ParseError
		corruptErr *store.CorruptError
		valErrs    validator.ValidationErrors
	)

	switch {
	case errors.As(err, &reqErr), errors.As(err, &parseErr), errors.As(err, &valErrs):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &missingErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sources.ErrNoWebData), errors.As(err, &schemaErr), errors.As(err, &upErr):
		return http.StatusBadGateway
	case errors.As(err, &corruptErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

var errEmptyBody = errors.New("request body is required")

// decodeJSON decodes the request body into v. Errors wrap
// common.ErrorValidation.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: %w", common.ErrorValidation, errEmptyBody)
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: request body exceeds %d bytes", common.ErrorValidation, tooLarge.Limit)
		default:
			return fmt.Errorf("%w: invalid JSON body", common.ErrorValidation)
		}
	}
	return nil
}

type credentials struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

// decodeCredentials reads a username and password from either a form or a
// JSON body.
func decodeCredentials(r *http.Request) (credentials, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return credentials{}, fmt.Errorf("%w: invalid form body", common.ErrorValidation)
		}
		return credentials{
			UserName: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		var c credentials
		err := decodeJSON(r, &c)
		return c, err
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrorValidation, name)
	}
	return id, nil
}

// parseQuery reads the listing parameters. searchParam names the filter
// parameter (name for lists, content for items). Defaults and bounds are
// applied by the services.
func parseQuery(r *http.Request, searchParam string) (models.Query, error) {
	v := r.URL.Query()
	q := models.Query{
		Search:    v.Get(searchParam),
		SortBy:    v.Get("sort_by"),
		SortOrder: models.SortOrder(v.Get("sort_order")),
	}

	var err error
	if q.Page, err = queryInt(v.Get("page"), "page"); err != nil {
		return models.Query{}, err
	}
	if q.PageSize, err = queryInt(v.Get("page_size"), "page_size"); err != nil {
		return models.Query{}, err
	}

	return q, nil
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", common.ErrorValidation, name)
	}
	// zero would silently select the default
	if n == 0 {
		return 0, fmt.Errorf("%w: %s must not be zero", common.ErrorValidation, name)
	}
	return n, nil
}

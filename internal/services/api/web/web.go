// Package web holds the JSON plumbing shared by the REST handlers.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/product"
	"github.com/lmello0/status-page/internal/obs"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorBody struct {
	Detail string `json:"detail"`
}

// BadRequestError carries a client-facing message for a 400 response.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return e.Msg }

func BadRequest(format string, args ...any) error {
	return &BadRequestError{Msg: fmt.Sprintf(format, args...)}
}

func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, ErrorBody{Detail: msg})
}

// Decode reads a JSON body into dst and runs its validate tags.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest("request body is required")
		}
		return BadRequest("invalid request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequest("%v", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return &BadRequestError{Msg: strings.Join(parts, "; ")}
}

// PathID parses a positive integer chi URL param.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest("invalid %s: %q", name, raw)
	}
	return id, nil
}

// QueryInt returns def when the param is absent and rejects values outside
// [lo, hi]. hi <= 0 means unbounded.
func QueryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, BadRequest("%s must be an integer", name)
	}
	if v < lo || (hi > 0 && v > hi) {
		if hi > 0 {
			return 0, BadRequest("%s must be between %d and %d", name, lo, hi)
		}
		return 0, BadRequest("%s must be >= %d", name, lo)
	}
	return v, nil
}

func QueryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, BadRequest("%s must be a boolean", name)
	}
	return v, nil
}

// Fail maps domain errors onto status codes. Anything unrecognised is logged
// and hidden behind a 500.
func Fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		bad    *BadRequestError
		exists *component.AlreadyExistsError
	)
	switch {
	case errors.As(err, &bad):
		Error(w, http.StatusBadRequest, bad.Msg)
	case errors.Is(err, component.ErrInvalidHealthURL),
		errors.Is(err, component.ErrInvalidMonitoring),
		errors.Is(err, component.ErrInvalidType),
		errors.Is(err, component.ErrInvalidParent):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, component.ErrComponentNotFound):
		Error(w, http.StatusNotFound, "Component not found")
	case errors.Is(err, product.ErrProductNotFound):
		Error(w, http.StatusNotFound, "Product not found")
	case errors.As(err, &exists):
		Error(w, http.StatusConflict, fmt.Sprintf("Component with %s='%s' already exists", exists.Field, exists.Value))
	case errors.Is(err, product.ErrAlreadyExists):
		Error(w, http.StatusConflict, err.Error())
	default:
		obs.WithTrace(r.Context(), log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

package handle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"comanda-api/internal/floor/app/core"
)

// jsonResponse writes the given data as a JSON-encoded HTTP response.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes an error response as JSON with the specified HTTP status code.
func jsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// serviceError maps the shared failure taxonomy onto HTTP status codes. The
// wrapped message names the failed precondition, which clients match on.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		jsonError(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrNotFound):
		jsonError(w, http.StatusNotFound, err)
	case errors.Is(err, core.ErrConflict), errors.Is(err, core.ErrInvalidState):
		jsonError(w, http.StatusConflict, err)
	case errors.Is(err, core.ErrOverpayment):
		jsonError(w, http.StatusUnprocessableEntity, err)
	default:
		jsonError(w, http.StatusInternalServerError, err)
	}
}

// pathID parses a positive integer path segment.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// pathIndex parses a zero-based index path segment.
func pathIndex(r *http.Request, name string) (int, error) {
	idx, err := strconv.Atoi(r.PathValue(name))
	if err != nil || idx < 0 {
		return 0, errors.New("invalid " + name)
	}
	return idx, nil
}

package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies. Console payloads are small records;
// anything past 1 MiB is a mistake or abuse.
const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst, rejecting unknown fields and
// oversized payloads. On failure the error response has already been written
// and false is returned; handlers just return.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "request_too_large", Err: err})
			return false
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON encodes v to a buffer first so an encoding failure can still
// produce a 500 instead of a half-written body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Write errors mean the client went away; nothing left to do.
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups the pieces of one error response: HTTP status, the
// machine-readable code clients switch on, and the human-readable cause.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes the console's uniform error body.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	message := http.StatusText(p.Code)
	if p.Err != nil {
		message = p.Err.Error()
	}
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": message})
}

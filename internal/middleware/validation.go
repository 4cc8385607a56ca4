package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fleamarket/internal/validation"
)

// ErrMalformedBody is returned when a request body is not the expected JSON
var ErrMalformedBody = errors.New("malformed request body")

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return validation.Struct(v)
}

// FormatValidationErrors extracts the field errors carried by err
func FormatValidationErrors(err error) validation.Errors {
	verrs, _ := validation.As(err)
	return verrs
}

// RespondWithDecodeError writes the 400 matching a DecodeAndValidate failure
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if verrs := FormatValidationErrors(err); len(verrs) > 0 {
		RespondWithValidationErrors(w, verrs)
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

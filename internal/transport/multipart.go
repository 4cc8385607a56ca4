package transport

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/validation"
)

const (
	// maxRequestBytes caps a whole multipart body
	maxRequestBytes = 64 << 20
	maxFormMemory   = 32 << 20
)

// parseMultipart reads a multipart form with the request size capped
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return fmt.Errorf("failed to parse multipart form: %w", err)
	}
	return nil
}

// formUploads loads every file sent under field, accepting both "files"
// and "files[]". Reading stops one byte past the size limit so oversized
// uploads still fail validation without being held in full.
func formUploads(r *http.Request, field string) ([]domain.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := append([]*multipart.FileHeader{}, r.MultipartForm.File[field]...)
	headers = append(headers, r.MultipartForm.File[field+"[]"]...)

	uploads := make([]domain.ImageUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// formUpload loads the single file sent under field, if any
func formUpload(r *http.Request, field string) (*domain.ImageUpload, error) {
	uploads, err := formUploads(r, field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func readUpload(header *multipart.FileHeader) (domain.ImageUpload, error) {
	f, err := header.Open()
	if err != nil {
		return domain.ImageUpload{}, fmt.Errorf("failed to open upload %q: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, validation.MaxImageSize+1))
	if err != nil {
		return domain.ImageUpload{}, fmt.Errorf("failed to read upload %q: %w", header.Filename, err)
	}
	return domain.ImageUpload{Filename: header.Filename, Data: data}, nil
}

// formIDs collects integer ids sent as repeated fields or a comma list
func formIDs(r *http.Request, field string) ([]int64, validation.Errors) {
	var (
		ids  []int64
		errs validation.Errors
	)
	if r.MultipartForm == nil {
		return nil, nil
	}
	values := append(r.MultipartForm.Value[field], r.MultipartForm.Value[field+"[]"]...)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				errs = errs.Add(field, field+" must contain integer ids")
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, errs
}

// formInt parses an optional integer form value. Empty values yield 0 so
// the required rules downstream report them.
func formInt(r *http.Request, field string, errs *validation.Errors) int64 {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*errs = errs.Add(field, field+" must be an integer")
		return 0
	}
	return n
}

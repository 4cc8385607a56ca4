package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"fleamarket/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted upload, 5000 KiB
const MaxImageSize = 5000 * 1024

const (
	MsgImagesRequired  = "at least one image file is required"
	MsgImageType       = "all files must be images of type jpeg, png or jpg"
	MsgImageSize       = "images must be 5MB or smaller"
	MsgImageMustRemain = "at least one image must remain"
)

var (
	allowedExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true}
	allowedMIMETypes  = []string{"image/jpeg", "image/png"}
)

// Image checks one upload against the type allow-list and the size limit.
// The extension and the sniffed content type must both be allowed.
func Image(field string, upload domain.ImageUpload) Errors {
	var errs Errors

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	detected := mimetype.Detect(upload.Data)
	if !allowedExtensions[ext] || !mimetype.EqualsAny(detected.String(), allowedMIMETypes...) {
		errs = errs.Add(field, MsgImageType)
	}
	if upload.Size() > MaxImageSize {
		errs = errs.Add(field, MsgImageSize)
	}

	return errs
}

// Images validates every upload under field; required demands at least one
func Images(field string, uploads []domain.ImageUpload, required bool) Errors {
	var errs Errors

	if required && len(uploads) == 0 {
		return errs.Add(field, MsgImagesRequired)
	}
	for i, upload := range uploads {
		errs = append(errs, Image(fmt.Sprintf("%s.%d", field, i), upload)...)
	}

	return errs
}

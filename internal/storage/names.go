package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename keeps the base name of an uploaded file and replaces
// anything outside [A-Za-z0-9._-]
func SanitizeFilename(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	clean := unsafeChars.ReplaceAllString(base, "_")
	if clean == "" || clean == "_" {
		return "upload"
	}
	return clean
}

// GenerateName builds a storage name of the form
// YYYYMMDD + 15 random alphanumerics + "_" + sanitized original filename
func GenerateName(now time.Time, original string) (string, error) {
	token, err := gonanoid.Generate(tokenAlphabet, 15)
	if err != nil {
		return "", fmt.Errorf("failed to generate blob token: %w", err)
	}
	return now.Format("20060102") + token + "_" + SanitizeFilename(original), nil
}

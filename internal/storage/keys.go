package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// ProductPrefix is the key prefix of every product image.
	ProductPrefix = "products/"
	// UserPrefix is the key prefix of every avatar.
	UserPrefix = "users/"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ProductImageKey returns products/{slug}/{filename}.
func ProductImageKey(slug, filename string) string {
	return ProductPrefix + slug + "/" + SanitizeFilename(filename)
}

// AvatarKey returns users/{userID}/avatar.{ext}.
func AvatarKey(userID uuid.UUID, ext string) string {
	return UserPrefix + userID.String() + "/avatar." + strings.TrimPrefix(ext, ".")
}

// SanitizeFilename reduces name to a single safe path segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.TrimSpace(name)
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "image"
	}
	return name
}

// IsProductImageKey reports whether key points inside the products prefix
// without escaping it.
func IsProductImageKey(key string) bool {
	if !strings.HasPrefix(key, ProductPrefix) || strings.Contains(key, "..") {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(key, ProductPrefix), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

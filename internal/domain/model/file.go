package model

import (
	"fmt"
	"path"
	"strings"
)

// StoredFile describes one hosted artifact in the blob store.
type StoredFile struct {
	Name string
	Key  string
	Size int64
	URL  string
}

// Extensions accepted for hosting. Anything else is rejected before the
// blob store is contacted.
var allowedExtensions = map[string]string{
	".html": "text/html",
	".zip":  "application/zip",
}

// AllowedFileName reports whether name carries an accepted extension.
func AllowedFileName(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// ContentTypeFor returns the MIME type to store a file under. Callers must
// have validated the name with AllowedFileName first.
func ContentTypeFor(name string) string {
	if ct, ok := allowedExtensions[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// FileKey builds the per-user prefixed object key for a file name.
func FileKey(tgID int64, name string) string {
	return fmt.Sprintf("%s%s", FilePrefix(tgID), name)
}

// FilePrefix is the blob-store prefix owning all of one user's files.
func FilePrefix(tgID int64) string {
	return fmt.Sprintf("sites/%d/", tgID)
}

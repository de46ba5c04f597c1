// Package fileid provides a deterministic template ID from a file path for imported files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	prefix  = "file-"
	hashLen = 16
)

// TemplateID returns a stable template ID for the given absolute path.
// Same path always yields the same ID. Used to add and remove imported templates by path.
func TemplateID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])[:hashLen]
}

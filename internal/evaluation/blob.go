package evaluation

import (
	"crypto/sha1"
	"fmt"
	"os"
)

// BlobIdentifier produces the content identity hash recorded for a
// revision file.
type BlobIdentifier interface {
	Identify(path string) (string, error)
}

// GitBlobs hashes file content the way git hashes blob objects, so the
// recorded identities line up with the hashes a git object store would
// report for the same content.
type GitBlobs struct{}

func (GitBlobs) Identify(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("identify blob: %w", err)
	}
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

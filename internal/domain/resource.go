package domain

import "errors"

// ErrNotFound reports a lookup for an entity that does not exist.
var ErrNotFound = errors.New("not found")

// Resource is an indexed learning resource: the document's S3 location,
// its dedupe hash and the ids of its vectors in the search index.
type Resource struct {
	ID          string
	Title       string
	DriveID     string
	FileHash    string
	S3Path      string
	PineconeIDs []string
}

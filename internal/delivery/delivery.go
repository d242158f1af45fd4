// Package delivery defines the file-mover collaborator contract.
package delivery

import (
	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/media"
)

// Status classifies a delivery outcome. Transient errors are worth
// retrying; everything else is final.
type Status string

const (
	StatusOK             Status = "ok"
	StatusError          Status = "error"
	StatusTransientError Status = "transient_error"
	StatusNotFound       Status = "not_found"
	StatusAlreadyExists  Status = "already_exists"
)

// Result is the outcome of one delivery operation.
type Result struct {
	Status Status
	Files  []string
	Folder string
	Err    error
}

// OK reports a successful delivery (including an already-present target).
func (r Result) OK() bool {
	return r.Status == StatusOK || r.Status == StatusAlreadyExists
}

// Transient reports an error worth retrying.
func (r Result) Transient() bool { return r.Status == StatusTransientError }

// Service moves, renames and deletes delivered media files. The
// implementation is out of scope for the engine.
type Service interface {
	Deliver(info downloads.Info, related []*media.Media) Result
	Delete(m *media.Media) Result
	Rename(m *media.Media, name string) Result
}

package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluetecnologia/status_admin/internal/models"
)

// Gateway performs create/update calls against the service-record store.
// Each call is a single attempt; failures are returned as *Error.
type Gateway interface {
	Create(ctx context.Context, rec models.ServiceRecord) (models.ServiceRecord, error)
	UpdateByID(ctx context.Context, id uint, rec models.ServiceRecord) (models.ServiceRecord, error)
	List(ctx context.Context) ([]models.ServiceRecord, error)
	FindByID(ctx context.Context, id uint) (models.ServiceRecord, error)
}

const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpList     = "list"
	OpFindByID = "find"
)

var (
	ErrNotFound  = errors.New("service not found")
	ErrConflict  = errors.New("service name already exists")
	ErrMissingID = errors.New("service id is required for update")
)

// Error is returned by every Gateway operation. Err is the transport or
// store error, left as it was.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("service gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// servicePayload is the body sent on create and update. Only the editable
// fields travel; id goes in the URL.
type servicePayload struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func payloadOf(rec models.ServiceRecord) servicePayload {
	return servicePayload{Name: rec.Name, Status: rec.Status}
}

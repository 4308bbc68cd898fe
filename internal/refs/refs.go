// Package refs models identifiers owned by other services.
//
// The feedback service stores bare UUIDs for patients, professionals and
// gateway departments. It never enforces referential integrity on them and
// never dereferences them locally; resolution goes through an injected
// Resolver when a caller actually needs the remote record.
package refs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Service identifies the external service that owns a referenced entity.
type Service string

const (
	ServicePatients      Service = "patients"
	ServiceProfessionals Service = "professionals"
	ServiceDepartments   Service = "departments"
)

// ErrUnresolvable is returned by resolvers when the owning service has no
// record for the referenced id. Dangling references are not an error at
// write time; only resolution surfaces them.
var ErrUnresolvable = errors.New("refs: reference does not resolve")

// External is a weak reference to an entity owned by another service.
type External struct {
	ID      uuid.UUID `json:"id"`
	Service Service   `json:"service"`
}

// Parse validates that raw looks like a UUID and tags it with the owning
// service. No existence check is performed.
func Parse(service Service, raw string) (External, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return External{}, fmt.Errorf("refs: %s reference %q is not a UUID: %w", service, raw, err)
	}
	return External{ID: id, Service: service}, nil
}

// IsZero reports whether the reference is unset.
func (e External) IsZero() bool {
	return e.ID == uuid.Nil
}

func (e External) String() string {
	return fmt.Sprintf("%s/%s", e.Service, e.ID)
}

// Resolved is the minimal projection of a remote record that callers of a
// Resolver get back. Contact fields are empty when the owning service does
// not expose them.
type Resolved struct {
	ID          uuid.UUID
	DisplayName string
	Phone       string
	Language    string
}

// Resolver looks up external references in their owning service.
// Implementations live at the edges (gateway client, test fakes); the domain
// core only depends on this capability.
type Resolver interface {
	Resolve(ctx context.Context, ref External) (*Resolved, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ref External) (*Resolved, error)

func (f ResolverFunc) Resolve(ctx context.Context, ref External) (*Resolved, error) {
	return f(ctx, ref)
}

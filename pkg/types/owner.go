package types

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKind discriminates the two identities that can hold carts and orders.
type OwnerKind string

const (
	OwnerKindUser  OwnerKind = "user"
	OwnerKindGuest OwnerKind = "guest"
)

// Owner is the tagged union of a registered user or an anonymous guest.
// Carts and orders belong to exactly one of the two; the zero Owner is
// invalid and rejected by Validate.
type Owner struct {
	kind OwnerKind
	id   uuid.UUID
}

// UserOwner returns an Owner for a registered user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{kind: OwnerKindUser, id: id}
}

// GuestOwner returns an Owner for an anonymous guest.
func GuestOwner(id uuid.UUID) Owner {
	return Owner{kind: OwnerKindGuest, id: id}
}

func (o Owner) Kind() OwnerKind { return o.kind }

func (o Owner) ID() uuid.UUID { return o.id }

func (o Owner) IsUser() bool { return o.kind == OwnerKindUser }

func (o Owner) IsGuest() bool { return o.kind == OwnerKindGuest }

// Validate rejects the zero Owner.
func (o Owner) Validate() error {
	if o.id == uuid.Nil {
		return fmt.Errorf("owner id required")
	}
	switch o.kind {
	case OwnerKindUser, OwnerKindGuest:
		return nil
	}
	return fmt.Errorf("invalid owner kind %q", o.kind)
}

// UserID returns the user id column value for persistence (nil for guests).
func (o Owner) UserID() *uuid.UUID {
	if !o.IsUser() {
		return nil
	}
	id := o.id
	return &id
}

// GuestID returns the guest id column value for persistence (nil for users).
func (o Owner) GuestID() *uuid.UUID {
	if !o.IsGuest() {
		return nil
	}
	id := o.id
	return &id
}

func (o Owner) String() string {
	return fmt.Sprintf("%s:%s", o.kind, o.id)
}

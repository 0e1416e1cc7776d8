// Package ownership implements the single-admin access control shared by every contract,
// and the identity gates used to protect privileged entry points.
package ownership

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/types"
)

// State is the lifecycle of a one-time initialized field.
type State uint8

const (
	Uninitialized State = iota
	Initialized
)

func (s State) String() string {
	if s == Initialized {
		return "Initialized"
	}
	return "Uninitialized"
}

// Ownable stores a contract's owner. The zero value is uninitialized.
type Ownable struct {
	state State
	owner types.Identity
}

// Owner returns the current owner, or false before initialization.
func (o *Ownable) Owner() (types.Identity, bool) {
	return o.owner, o.state == Initialized
}

// State returns the ownership lifecycle state.
func (o *Ownable) State() State { return o.state }

// InitializeOwner makes caller the owner. It fails once an owner has been set.
func (o *Ownable) InitializeOwner(caller types.Identity) error {
	return o.initialize(caller)
}

// InitializeWith sets an explicit owner, for constructors that name the owner rather than
// taking the caller.
func (o *Ownable) InitializeWith(owner types.Identity) error {
	return o.initialize(owner)
}

func (o *Ownable) initialize(owner types.Identity) error {
	if o.state == Initialized {
		return fmt.Errorf("%w: owner already set to %s", types.ErrAlreadyInitialized, o.owner)
	}
	if owner.IsZero() {
		return fmt.Errorf("%w: owner cannot be unset", types.ErrInvalidParameter)
	}
	o.state = Initialized
	o.owner = owner
	return nil
}

// SetOwner hands ownership to newOwner in a single step. There is no acceptance handshake:
// transferring to an identity that cannot sign locks the owner-gated surface permanently.
func (o *Ownable) SetOwner(caller, newOwner types.Identity) error {
	if err := o.RequireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("%w: new owner cannot be unset", types.ErrInvalidParameter)
	}
	o.owner = newOwner
	return nil
}

// RequireOwner fails with ErrNotOwner unless caller is the initialized owner.
func (o *Ownable) RequireOwner(caller types.Identity) error {
	if o.state != Initialized {
		return fmt.Errorf("%w: owner not initialized", types.ErrNotOwner)
	}
	return RequireIdentity(caller, o.owner, types.ErrNotOwner)
}

// RequireIdentity fails with kind unless caller equals expected. An unset expected identity never matches.
func RequireIdentity(caller, expected types.Identity, kind error) error {
	if expected.IsZero() || caller != expected {
		return fmt.Errorf("%w: caller %s is not %s", kind, caller, expected)
	}
	return nil
}

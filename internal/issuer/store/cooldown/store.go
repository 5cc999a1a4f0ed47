// Package cooldown tracks reactivation delays for identities that exited
// their term early. The registry consults it on every (re)authorization.
package cooldown

import (
	"context"

	"pdtoken/pkg/domain"
)

// Store holds, per identity, the block height before which re-authorization
// is refused. An absent entry means no cooldown.
type Store interface {
	// Set records a cooldown lasting until the given block height.
	Set(ctx context.Context, addr domain.Address, untilBlock uint64) error
	// Until returns the recorded height and whether an entry exists.
	Until(ctx context.Context, addr domain.Address) (uint64, bool, error)
	// Clear removes any entry for the identity.
	Clear(ctx context.Context, addr domain.Address) error
}

// internal/app/scheduling/errors.go
package scheduling

import (
	"errors"

	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
)

// Callers match on these sentinels to pick a response. Store sentinels are
// re-exported so handlers only ever import this package for error mapping.
var (
	ErrInvalidDate     = civildate.ErrInvalidDate
	ErrSessionExists   = sessionstore.ErrSessionExists
	ErrSessionNotFound = sessionstore.ErrSessionNotFound
	ErrGroupNotFound   = groupstore.ErrGroupNotFound

	ErrDateNotEligible = errors.New("date is not an eligible session date for the group")
	ErrNotMember       = errors.New("user is not a member of the group")
	ErrInvalidStatus   = errors.New("invalid availability status")
	ErrInvalidTime     = errors.New("invalid session time, want HH:MM")
)

package gctypes

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// HandleKind tags what kind of daemon primitive a Handle was minted for,
// mirroring am_Handle_e (H_CONNECT, H_DISCONNECT, H_SETSOURCESTATE, ...).
type HandleKind int

const (
	HandleUnknown HandleKind = iota
	HandleConnect
	HandleDisconnect
	HandleSetSourceState
	HandleSetSinkVolume
	HandleSetSourceVolume
	HandleSetSinkSoundProperty
	HandleSetSourceSoundProperty
	HandleSetSinkNotification
	HandleSetSourceNotification
	HandleCrossFade
)

func (k HandleKind) String() string {
	switch k {
	case HandleConnect:
		return "connect"
	case HandleDisconnect:
		return "disconnect"
	case HandleSetSourceState:
		return "setSourceState"
	case HandleSetSinkVolume:
		return "setSinkVolume"
	case HandleSetSourceVolume:
		return "setSourceVolume"
	case HandleSetSinkSoundProperty:
		return "setSinkSoundProperty"
	case HandleSetSourceSoundProperty:
		return "setSourceSoundProperty"
	case HandleSetSinkNotification:
		return "setSinkNotificationConfiguration"
	case HandleSetSourceNotification:
		return "setSourceNotificationConfiguration"
	case HandleCrossFade:
		return "crossFade"
	default:
		return "unknown"
	}
}

// Handle is the ticket the daemon hands back for every asynchronous
// primitive, later echoed in the matching acknowledgment callback. Ticket
// is minted from a UUID rather than a simple incrementing counter so
// handles stay unique across process restarts and across the command-IPC
// boundary, where a client might log or replay one.
type Handle struct {
	Kind   HandleKind
	Ticket uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.Ticket)
}

// IsZero reports whether h is the zero Handle (no primitive outstanding).
func (h Handle) IsZero() bool { return h == Handle{} }

// NewHandle mints a Handle of the given kind. The ticket is derived from
// the first four bytes (the high 32 bits) of a fresh UUIDv4, which is effectively collision-free
// for the lifetime of a single process and avoids a shared counter that
// the single-goroutine dispatcher model doesn't otherwise need protected.
func NewHandle(kind HandleKind) Handle {
	id := uuid.Must(uuid.NewV4())
	b := id.Bytes()
	ticket := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if ticket == 0 {
		ticket = 1
	}
	return Handle{Kind: kind, Ticket: ticket}
}

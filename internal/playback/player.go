package playback

import (
	"context"

	"github.com/schollz/trackstudio/internal/types"
)

// Handle identifies one loaded source on a player.
type Handle string

// Player is the playback collaborator the mixing engine drives.
type Player interface {
	Load(ctx context.Context, ref types.SourceRef) (Handle, error)
	// Play starts h from the beginning at the given linear gain.
	Play(ctx context.Context, h Handle, gain float64) error
	SetGain(h Handle, gain float64) error
	Stop(ctx context.Context, h Handle) error
	Unload(ctx context.Context, h Handle) error
	// OnComplete registers fn to run when h plays to its end. fn runs on a
	// goroutine owned by the player. The returned func deregisters it.
	OnComplete(h Handle, fn func()) (cancel func())
}

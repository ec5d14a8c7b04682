package playback

import (
	"fmt"
	"log"

	"github.com/kdimtricp/piiscan/internal/timecode"
)

// Surface is the narrow capability a playback implementation must offer.
// The navigator drives it and never touches the player directly.
type Surface interface {
	SeekTo(seconds int) error
	Play() error
	Pause() error
}

// Navigator converts textual time ranges into playback seeks.
type Navigator struct {
	surface Surface
}

func NewNavigator(surface Surface) *Navigator {
	return &Navigator{surface: surface}
}

// JumpTo parses the start of an "M:SS -> M:SS" range, seeks the surface
// there and starts playback. A malformed range surfaces as a
// *timecode.ParseError and leaves the surface untouched, so one bad
// interaction never disturbs the rest of the result view.
func (n *Navigator) JumpTo(timeRange string) error {
	start, err := timecode.ParseStart(timeRange)
	if err != nil {
		return err
	}

	if err := n.surface.SeekTo(start); err != nil {
		return fmt.Errorf("failed to seek playback: %w", err)
	}
	if err := n.surface.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// LogSurface is a Surface that just reports what a real player would do.
// Used by the CLI, which has no embedded video player.
type LogSurface struct{}

func (LogSurface) SeekTo(seconds int) error {
	log.Printf("[PLAYBACK] seek to %s (%ds)", timecode.Format(seconds), seconds)
	return nil
}

func (LogSurface) Play() error {
	log.Printf("[PLAYBACK] play")
	return nil
}

func (LogSurface) Pause() error {
	log.Printf("[PLAYBACK] pause")
	return nil
}

package glyphcam

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrFrameSize is wrapped when a frame's pixel data does not match its
// declared dimensions.
var ErrFrameSize = errors.New("glyphcam: frame size mismatch")

// Frame is one video frame in tightly packed RGBA order.
type Frame struct {
	// Data holds Width*Height*4 bytes of RGBA pixels, row-major, top row
	// first.
	Data []byte

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Timestamp is when the frame was captured.
	Timestamp time.Time

	// Seq increases by one per published frame, including dropped ones.
	Seq uint64
}

// Validate checks that Data matches the declared dimensions.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, f.Width, f.Height)
	}
	if want := f.Width * f.Height * 4; len(f.Data) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d (want %d)",
			ErrFrameSize, len(f.Data), f.Width, f.Height, want)
	}
	return nil
}

// FrameSource supplies video frames to the pipeline. Implementations must
// never block: the renderer calls Latest once per scheduled frame and skips
// the frame when nothing new is available.
type FrameSource interface {
	// Latest returns the most recent frame, or nil when no frame has been
	// published yet. The returned frame must not be mutated afterwards by
	// the source.
	Latest() (*Frame, error)
}

// LatestFrameSource is a single-slot frame mailbox. Publish overwrites the
// slot; a consumer that falls behind sees only the newest frame, and the
// number of frames it never saw is counted in Drops. This keeps capture
// and render rates decoupled without unbounded queues.
type LatestFrameSource struct {
	mu     sync.Mutex
	latest *Frame
	taken  bool
	seq    atomic.Uint64
	drops  atomic.Uint64
}

// NewLatestFrameSource returns an empty mailbox.
func NewLatestFrameSource() *LatestFrameSource {
	return &LatestFrameSource{}
}

// Publish places a frame in the mailbox, overwriting any unconsumed frame.
// It never blocks. The frame's Seq is assigned here; the caller's value is
// ignored. Invalid frames are rejected so a capture bug surfaces at the
// boundary instead of as a GPU upload error.
func (s *LatestFrameSource) Publish(f *Frame) error {
	if f == nil {
		return errors.New("glyphcam: publish nil frame")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	f.Seq = s.seq.Add(1)

	s.mu.Lock()
	if s.latest != nil && !s.taken {
		s.drops.Add(1)
	}
	s.latest = f
	s.taken = false
	s.mu.Unlock()
	return nil
}

// Latest implements FrameSource. Repeated calls between publishes return the
// same frame; the drop counter only advances when an unseen frame is
// overwritten.
func (s *LatestFrameSource) Latest() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taken = true
	return s.latest, nil
}

// Drops returns how many published frames were overwritten before any
// consumer saw them.
func (s *LatestFrameSource) Drops() uint64 {
	return s.drops.Load()
}

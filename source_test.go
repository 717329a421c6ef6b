package glyphcam

import (
	"errors"
	"testing"
	"time"
)

func testFrame(w, h int) *Frame {
	return &Frame{
		Data:      make([]byte, w*h*4),
		Width:     w,
		Height:    h,
		Timestamp: time.Now(),
	}
}

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		wantErr bool
	}{
		{name: "valid", frame: testFrame(4, 3), wantErr: false},
		{name: "zero width", frame: &Frame{Data: nil, Width: 0, Height: 3}, wantErr: true},
		{name: "negative height", frame: &Frame{Data: nil, Width: 4, Height: -1}, wantErr: true},
		{name: "short data", frame: &Frame{Data: make([]byte, 10), Width: 4, Height: 3}, wantErr: true},
		{name: "long data", frame: &Frame{Data: make([]byte, 4*3*4+4), Width: 4, Height: 3}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFrameSize) {
				t.Errorf("error %v does not wrap ErrFrameSize", err)
			}
		})
	}
}

func TestLatestFrameSourceEmpty(t *testing.T) {
	s := NewLatestFrameSource()
	f, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if f != nil {
		t.Errorf("empty mailbox returned frame %+v", f)
	}
}

func TestLatestFrameSourcePublish(t *testing.T) {
	s := NewLatestFrameSource()

	if err := s.Publish(testFrame(4, 4)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	f, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if f == nil {
		t.Fatal("Latest returned nil after publish")
	}
	if f.Seq != 1 {
		t.Errorf("first frame Seq = %d, want 1", f.Seq)
	}

	// Repeated Latest calls between publishes return the same frame.
	again, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if again != f {
		t.Error("repeated Latest returned a different frame")
	}
	if got := s.Drops(); got != 0 {
		t.Errorf("Drops() = %d, want 0", got)
	}
}

func TestLatestFrameSourceOverwrite(t *testing.T) {
	s := NewLatestFrameSource()

	// Three publishes with no consumer: the first two are dropped.
	for i := 0; i < 3; i++ {
		if err := s.Publish(testFrame(2, 2)); err != nil {
			t.Fatalf("Publish %d: %v", i, err)
		}
	}
	if got := s.Drops(); got != 2 {
		t.Errorf("Drops() = %d, want 2", got)
	}

	f, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if f.Seq != 3 {
		t.Errorf("surviving frame Seq = %d, want 3", f.Seq)
	}

	// Overwriting a consumed frame is not a drop.
	if err := s.Publish(testFrame(2, 2)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := s.Drops(); got != 2 {
		t.Errorf("Drops() after consumed overwrite = %d, want 2", got)
	}
}

func TestLatestFrameSourceRejectsInvalid(t *testing.T) {
	s := NewLatestFrameSource()

	if err := s.Publish(nil); err == nil {
		t.Error("Publish(nil) succeeded")
	}
	bad := &Frame{Data: make([]byte, 7), Width: 4, Height: 4}
	if err := s.Publish(bad); !errors.Is(err, ErrFrameSize) {
		t.Errorf("Publish(bad) = %v, want ErrFrameSize", err)
	}

	f, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if f != nil {
		t.Error("rejected publish still landed in the mailbox")
	}
}

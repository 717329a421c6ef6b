// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"testing"
)

func TestDeviceEventKindString(t *testing.T) {
	tests := []struct {
		kind DeviceEventKind
		want string
	}{
		{EventDeviceLost, "device_lost"},
		{EventValidation, "validation"},
		{DeviceEventKind(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("DeviceEventKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestAttachRejectsBadProvider(t *testing.T) {
	if _, err := Attach(struct{}{}); err == nil {
		t.Error("Attach accepted a provider without HAL accessors")
	}
	if _, err := Attach(badProvider{}); err == nil {
		t.Error("Attach accepted a provider returning non-HAL values")
	}
}

type badProvider struct{}

func (badProvider) HalDevice() any { return "not a device" }
func (badProvider) HalQueue() any  { return "not a queue" }

func TestEventSinkNonBlocking(t *testing.T) {
	c := &DeviceContext{}
	// No sink installed: report must not panic or block.
	c.report(EventValidation, errors.New("probe"))

	ch := make(chan DeviceEvent, 1)
	c.SetEventSink(ch)
	c.report(EventDeviceLost, errors.New("first"))
	// Sink is full now; the second event is dropped, not blocked on.
	c.report(EventValidation, errors.New("second"))

	ev := <-ch
	if ev.Kind != EventDeviceLost {
		t.Errorf("delivered event kind = %v, want EventDeviceLost", ev.Kind)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}

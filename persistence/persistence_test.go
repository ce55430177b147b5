package persistence

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	key := VolumeKey("sink", "AmpSink")
	if _, ok, err := s.Load(ctx, key); err != nil || ok {
		t.Fatalf("expected no value yet, got ok=%v err=%v", ok, err)
	}

	if err := s.Save(ctx, key, -1200); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	v, ok, err := s.Load(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected value present, got ok=%v err=%v", ok, err)
	}
	if v != -1200 {
		t.Fatalf("v = %d, want -1200", v)
	}
}

func TestKeyHelpersDistinct(t *testing.T) {
	k1 := VolumeKey("sink", "AmpSink")
	k2 := MuteKey("sink", "AmpSink")
	k3 := SoundPropertyKey("sink", "AmpSink", 3)
	if k1 == k2 || k2 == k3 || k1 == k3 {
		t.Fatalf("expected distinct keys, got %q %q %q", k1, k2, k3)
	}
}

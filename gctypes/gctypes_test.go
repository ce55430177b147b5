package gctypes

import (
	"errors"
	"testing"
	"time"
)

func TestNewHandleNonZero(t *testing.T) {
	h := NewHandle(HandleConnect)
	if h.IsZero() {
		t.Fatal("NewHandle returned a zero handle")
	}
	if h.Kind != HandleConnect {
		t.Fatalf("Kind = %v, want HandleConnect", h.Kind)
	}
}

func TestNewHandleUnique(t *testing.T) {
	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		h := NewHandle(HandleSetSinkVolume)
		if seen[h.Ticket] {
			t.Fatalf("duplicate ticket %d on iteration %d", h.Ticket, i)
		}
		seen[h.Ticket] = true
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError("Connect", DatabaseError, cause)
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is did not see through Error.Unwrap")
	}
	if err.Kind != DatabaseError {
		t.Fatalf("Kind = %v, want DatabaseError", err.Kind)
	}
}

func TestWaitForChildSentinel(t *testing.T) {
	err := WaitForChild()
	if !ErrWaitForChild(err) {
		t.Fatal("ErrWaitForChild did not recognize its own sentinel")
	}
	if ErrWaitForChild(errors.New("something else")) {
		t.Fatal("ErrWaitForChild false positive")
	}
}

func TestParamsDecode(t *testing.T) {
	type cfg struct {
		SourceName string `mapstructure:"sourceName"`
		Volume     int16  `mapstructure:"volume"`
	}
	p := Params{
		ParamSourceName: "phoneSource",
		ParamVolume:     -500,
	}
	var c cfg
	if err := p.Decode(&c); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.SourceName != "phoneSource" || c.Volume != -500 {
		t.Fatalf("unexpected decode result: %+v", c)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Unix(0, 0)
	clk := NewFakeClock(start)
	ch := clk.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("fired before advance")
	default:
	}

	clk.Advance(5 * time.Second)

	select {
	case <-ch:
	default:
		t.Fatal("did not fire after advance")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	c, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if c.Logger == nil || c.Clock == nil {
		t.Fatal("NewConfig left Logger or Clock nil")
	}
	if c.Properties.VolumeMax != DefaultSystemProperties().VolumeMax {
		t.Fatal("NewConfig did not apply default system properties")
	}
}

func TestWithOptions(t *testing.T) {
	clk := NewFakeClock(time.Unix(0, 0))
	c, err := NewConfig(WithClock(clk), WithLogger(NopLogger{}))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if c.Clock != Clock(clk) {
		t.Fatal("WithClock not applied")
	}
	if _, ok := c.Logger.(NopLogger); !ok {
		t.Fatal("WithLogger not applied")
	}
}

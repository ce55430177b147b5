package mixing

import (
	"context"
	"testing"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/registry"
)

func TestEvaluateUnconditionalRule(t *testing.T) {
	reg := registry.New()
	e, err := New(reg, gctypes.NopLogger{}, []Rule{
		{
			Name:        "always-connect",
			TriggerKind: gctypes.TriggerConnect,
			Descriptors: []policy.ActionDescriptor{{Kind: policy.ActionMainConnect, Target: "PhoneSource-AmpSink"}},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := e.Evaluate(context.Background(), gctypes.Trigger{Kind: gctypes.TriggerConnect})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(out) != 1 || out[0].Target != "PhoneSource-AmpSink" {
		t.Fatalf("unexpected descriptors: %+v", out)
	}
}

func TestEvaluateConditionGatesRule(t *testing.T) {
	reg := registry.New()
	e, err := New(reg, gctypes.NopLogger{}, []Rule{
		{
			Name:        "duck-on-phone",
			TriggerKind: gctypes.TriggerConnect,
			Condition:   `Payload.SourceName == "PhoneSource"`,
			Descriptors: []policy.ActionDescriptor{{Kind: policy.ActionSinkVolume, Target: "EntertainmentSink"}},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	matched, err := e.Evaluate(context.Background(), gctypes.Trigger{
		Kind:    gctypes.TriggerConnect,
		Payload: gctypes.ConnectTrigger{SourceName: "PhoneSource", SinkName: "AmpSink"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("expected rule to match, got %+v", matched)
	}

	unmatched, err := e.Evaluate(context.Background(), gctypes.Trigger{
		Kind:    gctypes.TriggerConnect,
		Payload: gctypes.ConnectTrigger{SourceName: "RadioSource", SinkName: "AmpSink"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(unmatched) != 0 {
		t.Fatalf("expected no match for non-phone source, got %+v", unmatched)
	}
}

func TestEvaluateIgnoresOtherTriggerKinds(t *testing.T) {
	reg := registry.New()
	e, err := New(reg, gctypes.NopLogger{}, []Rule{
		{Name: "r", TriggerKind: gctypes.TriggerConnect, Descriptors: []policy.ActionDescriptor{{Kind: policy.ActionMainConnect}}},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := e.Evaluate(context.Background(), gctypes.Trigger{Kind: gctypes.TriggerDisconnect})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no descriptors for unrelated trigger kind, got %+v", out)
	}
}

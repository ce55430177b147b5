// Command routingctld wires every package in this module into a single
// running controller: a registry seeded with a small automotive topology,
// a mixing-rule policy engine, a dispatcher pumping triggers through the
// action tree, a controller.Controller exposing the hook surface, and an
// ipc.MQTTGateway so a command client can drive it over MQTT. Grounded on
// bittoy-rule's example/ directory, which wires a rule engine end-to-end
// against literal, hard-coded configuration rather than a config file
// loader — this binary does the same for the controller.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gc-audio/routingctl/controller"
	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/dispatcher"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/ipc"
	"github.com/gc-audio/routingctl/persistence"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/policy/mixing"
	"github.com/gc-audio/routingctl/registry"
	"github.com/gc-audio/routingctl/resolver"
	"github.com/gc-audio/routingctl/trigger"
)

// seedTopology registers a small end-to-end topology: a media source to
// a speaker, and a phone source to an earpiece, both in one domain.
func seedTopology(reg *registry.Registry) {
	reg.RegisterDomain("HeadUnit")
	mustNoErr("RegisterSource Media", regSource(reg, "Media", "HeadUnit"))
	mustNoErr("RegisterSource Phone", regSource(reg, "Phone", "HeadUnit"))
	mustNoErr("RegisterSink Speaker", regSink(reg, "Speaker", "HeadUnit"))
	mustNoErr("RegisterSink Earpiece", regSink(reg, "Earpiece", "HeadUnit"))

	mustNoErr("RegisterClass Entertainment", regClass(reg, registry.Class{
		Name:    "Entertainment",
		Type:    gctypes.ClassPlayback,
		Sources: []string{"Media"},
		Sinks:   []string{"Speaker"},
	}))
	mustNoErr("RegisterClass PhoneCall", regClass(reg, registry.Class{
		Name:    "PhoneCall",
		Type:    gctypes.ClassPlayback,
		Sources: []string{"Phone"},
		Sinks:   []string{"Earpiece"},
	}))
}

func regSource(reg *registry.Registry, name, domain string) error {
	_, err := reg.RegisterSource(name, domain)
	return err
}

func regSink(reg *registry.Registry, name, domain string) error {
	_, err := reg.RegisterSink(name, domain)
	return err
}

func regClass(reg *registry.Registry, c registry.Class) error {
	_, err := reg.RegisterClass(c)
	return err
}

func mustNoErr(op string, err error) {
	if err != nil {
		log.Fatalf("routingctld: %s: %v", op, err)
	}
}

// mixingRules is the reference policy: connecting Phone ducks
// Entertainment.
func mixingRules() []mixing.Rule {
	return []mixing.Rule{
		{
			Name:        "phoneDucksEntertainment",
			TriggerKind: gctypes.TriggerClassConnect,
			Condition:   `Payload.ClassName == "PhoneCall"`,
			Descriptors: []policy.ActionDescriptor{
				{
					Kind:   policy.ActionSinkVolume,
					Target: "Speaker",
					Params: gctypes.Params{gctypes.ParamVolume: int16(-5000)},
				},
			},
		},
	}
}

// hydrateVolumes restores each sink's last-known volume from store,
// falling back to each sink's zero-value registration default when
// nothing has been persisted yet.
func hydrateVolumes(ctx context.Context, reg *registry.Registry, store persistence.Store, sinkNames []string) {
	for _, name := range sinkNames {
		sink, ok := reg.Sink(name)
		if !ok {
			continue
		}
		v, found, err := store.Load(ctx, persistence.VolumeKey("sink", name))
		if err != nil {
			log.Printf("routingctld: load volume for %s: %v", name, err)
			continue
		}
		if found {
			sink.Volume = int16(v)
		}
	}
}

// persistVolumes snapshots each sink's current volume, the counterpart to
// hydrateVolumes, run on shutdown so the next startup resumes where this
// run left off.
func persistVolumes(ctx context.Context, reg *registry.Registry, store persistence.Store, sinkNames []string) {
	for _, name := range sinkNames {
		sink, ok := reg.Sink(name)
		if !ok {
			continue
		}
		if err := store.Save(ctx, persistence.VolumeKey("sink", name), int64(sink.Volume)); err != nil {
			log.Printf("routingctld: save volume for %s: %v", name, err)
		}
	}
}

// autoAcknowledge stands in for a real daemon's callback delivery: it
// polls fakeDaemon for the most recently issued handle and immediately
// acknowledges it as successful. A production deployment replaces both
// fakeDaemon and this loop with a real AudioManager routing-side binding
// that calls ctrl.Acknowledge directly from its own callback thread.
func autoAcknowledge(ctx context.Context, fakeDaemon *daemon.Fake, ctrl *controller.Controller) {
	var seen gctypes.Handle
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if call := fakeDaemon.LastCall(); call.Handle != seen && !call.Handle.IsZero() {
				seen = call.Handle
				ctrl.Acknowledge(call.Handle, nil)
			}
		}
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := registry.New()
	seedTopology(reg)

	store := persistence.NewMemoryStore()
	sinkNames := []string{"Speaker", "Earpiece"}
	hydrateVolumes(ctx, reg, store, sinkNames)

	cfg, err := gctypes.NewConfig()
	if err != nil {
		log.Fatalf("routingctld: NewConfig: %v", err)
	}
	fakeDaemon := daemon.NewFake()
	res := resolver.New(reg, fakeDaemon, cfg.Properties)

	eng, err := mixing.New(reg, cfg.Logger, mixingRules())
	if err != nil {
		log.Fatalf("routingctld: mixing.New: %v", err)
	}

	q := trigger.New()
	disp := dispatcher.New(q, eng, reg, res, fakeDaemon, cfg)
	ctrl := controller.New(reg, disp, cfg)

	gateway := ipc.New(ctrl, cfg, "tcp://localhost:1883", "routingctld")
	disp.OnConnectionStateChange(gateway.PublishConnectionStateChange)
	if err := gateway.Connect(); err != nil {
		log.Fatalf("routingctld: mqtt connect: %v", err)
	}
	defer gateway.Close(250)

	go autoAcknowledge(ctx, fakeDaemon, ctrl)

	done := make(chan error, 1)
	go func() { done <- disp.Run(ctx) }()

	log.Print("routingctld: running")
	<-ctx.Done()
	<-done
	persistVolumes(context.Background(), reg, store, sinkNames)
	log.Print("routingctld: shut down")
}

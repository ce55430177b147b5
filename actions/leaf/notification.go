package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// NotificationConfigurationParams is the decoded configuration for a
// NotificationConfiguration leaf: which notification channel to arm, and
// the hysteresis band that should trigger a notification event.
type NotificationConfigurationParams struct {
	NotificationType int16 `mapstructure:"notificationType" structs:"notificationType"`
	Min              int16 `mapstructure:"notificationMin" structs:"notificationMin"`
	Max              int16 `mapstructure:"notificationMax" structs:"notificationMax"`
}

// NotificationConfiguration arms or rearms a sink's or source's
// notification channel (e.g. "notify when volume crosses this band").
// Grounded on CAmSinkActionSetNotificationConfiguration /
// CAmSourceActionSetNotificationConfiguration: fire-and-forget from the
// policy's perspective (no meaningful Undo, since the original treats
// rearming as idempotent rather than reversible).
type NotificationConfiguration struct {
	base
	onSink   bool
	sinkID   gctypes.ElementID
	sourceID gctypes.ElementID
	params   NotificationConfigurationParams
	handle   gctypes.Handle
}

// NewSinkNotificationConfiguration builds a NotificationConfiguration leaf
// targeting a sink.
func NewSinkNotificationConfiguration(ctl daemon.ControlReceive, handles *handlestore.Store, sink *registry.Sink, p gctypes.Params, cfg gctypes.Config) (*NotificationConfiguration, error) {
	var np NotificationConfigurationParams
	if err := p.Decode(&np); err != nil {
		return nil, gctypes.NewError("NewSinkNotificationConfiguration", gctypes.NotPossible, err)
	}
	return &NotificationConfiguration{
		base:   newBase("SinkNotificationConfiguration", ctl, handles, cfg),
		onSink: true,
		sinkID: sink.ID,
		params: np,
	}, nil
}

// NewSourceNotificationConfiguration builds a NotificationConfiguration
// leaf targeting a source.
func NewSourceNotificationConfiguration(ctl daemon.ControlReceive, handles *handlestore.Store, source *registry.Source, p gctypes.Params, cfg gctypes.Config) (*NotificationConfiguration, error) {
	var np NotificationConfigurationParams
	if err := p.Decode(&np); err != nil {
		return nil, gctypes.NewError("NewSourceNotificationConfiguration", gctypes.NotPossible, err)
	}
	return &NotificationConfiguration{
		base:     newBase("SourceNotificationConfiguration", ctl, handles, cfg),
		onSink:   false,
		sourceID: source.ID,
		params:   np,
	}, nil
}

func (a *NotificationConfiguration) targetID() gctypes.ElementID {
	if a.onSink {
		return a.sinkID
	}
	return a.sourceID
}

func (a *NotificationConfiguration) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	a.handle = gctypes.NewHandle(gctypes.HandleSetSinkNotification)
	var err error
	if a.onSink {
		err = a.ctl.SetSinkNotificationConfiguration(ctx, a.handle, a.sinkID, a.params.NotificationType, a.params.Min, a.params.Max)
	} else {
		a.handle = gctypes.NewHandle(gctypes.HandleSetSourceNotification)
		err = a.ctl.SetSourceNotificationConfiguration(ctx, a.handle, a.sourceID, a.params.NotificationType, a.params.Min, a.params.Max)
	}
	if err != nil {
		return a.finish(gctypes.NewError("NotificationConfiguration", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.targetID(), a.timeout)
	return a.waitForChild()
}

func (a *NotificationConfiguration) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	return a.finish(result)
}

func (a *NotificationConfiguration) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("NotificationConfiguration", gctypes.Aborted, nil))
}

// Undo is a no-op: rearming a notification channel has no meaningful
// inverse, the same treatment the original gives it.
func (a *NotificationConfiguration) Undo(context.Context) error { return nil }

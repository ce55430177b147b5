package gctypes

import "github.com/mitchellh/mapstructure"

// ParamKey is a closed enum of the parameter names a policy's
// ActionDescriptor can carry into an action's configuration map. Keeping
// this closed (rather than bare strings) lets the mixing-rule table and
// every leaf agree on spelling without a shared string-constant file
// drifting out of sync.
type ParamKey string

const (
	ParamSourceName       ParamKey = "sourceName"
	ParamSinkName         ParamKey = "sinkName"
	ParamClassName        ParamKey = "className"
	ParamConnectionName   ParamKey = "connectionName"
	ParamMainConnectionID ParamKey = "mainConnectionID"
	ParamSourceState      ParamKey = "sourceState"
	ParamVolume           ParamKey = "volume"
	ParamVolumeStep       ParamKey = "volumeStep"
	ParamMuteState        ParamKey = "muteState"
	ParamRamp             ParamKey = "ramp"
	ParamRampTime         ParamKey = "rampTime"
	ParamPropertyType     ParamKey = "propertyType"
	ParamPropertyValue    ParamKey = "propertyValue"
	ParamNotificationType ParamKey = "notificationType"
	ParamNotificationMin  ParamKey = "notificationMin"
	ParamNotificationMax  ParamKey = "notificationMax"
	ParamDirection        ParamKey = "direction"
	ParamTimeoutMS        ParamKey = "timeoutMS"
)

// Params is the generic, policy-authored configuration payload carried on
// an ActionDescriptor. Leaves decode it into their own typed configuration
// struct via Decode; leaf.Trace (actions/leaf/param.go) re-flattens such a
// struct into a map[string]any for tracing.
type Params map[ParamKey]any

// Decode unmarshals p into dst, which must be a pointer to a struct whose
// fields carry `mapstructure:"..."` tags matching ParamKey values. Grounded
// on bittoy-rule's configuration-map-to-struct idiom: components across
// that codebase accept a generic map and decode it into their own typed
// configuration on Init.
func (p Params) Decode(dst any) error {
	raw := make(map[string]any, len(p))
	for k, v := range p {
		raw[string(k)] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

package ipc

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gc-audio/routingctl/gctypes"
)

// connectionRequest is the JSON body for "<prefix>/hook/connect".
type connectionRequest struct {
	SourceName string `json:"sourceName"`
	SinkName   string `json:"sinkName"`
}

// disconnectionRequest is the JSON body for "<prefix>/hook/disconnect".
type disconnectionRequest struct {
	ConnectionName string `json:"connectionName"`
}

// volumeRequest is the JSON body for "<prefix>/hook/volume" (absolute)
// and "<prefix>/hook/volumeStep" (relative); the topic decides whether
// Volume or Step is read.
type volumeRequest struct {
	SinkName string `json:"sinkName"`
	Volume   int16  `json:"volume"`
	Step     int16  `json:"step"`
}

// muteRequest is the JSON body for "<prefix>/hook/mute".
type muteRequest struct {
	SinkName string            `json:"sinkName"`
	Mute     gctypes.MuteState `json:"mute"`
}

// soundPropertyRequest is the JSON body for "<prefix>/hook/sinkSoundProperty"
// and "<prefix>/hook/sourceSoundProperty".
type soundPropertyRequest struct {
	Name         string `json:"name"`
	PropertyType int16  `json:"propertyType"`
	Value        int16  `json:"value"`
}

// handleHook is the single mqtt.MessageHandler subscribed against
// "<prefix>/hook/+"; it dispatches on the topic's last segment the way
// CAmCommandSenderService.cpp's dispatch table maps an incoming D-Bus/CAPI
// method name to the matching hookUser* call.
func (g *MQTTGateway) handleHook(_ mqtt.Client, msg mqtt.Message) {
	hook := lastTopicSegment(msg.Topic())
	var err error
	switch hook {
	case "connect":
		var req connectionRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			_, err = g.ctrl.UserConnectionRequest(req.SourceName, req.SinkName)
		}
	case "disconnect":
		var req disconnectionRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserDisconnectionRequest(req.ConnectionName)
		}
	case "volume":
		var req volumeRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserVolumeChange(req.SinkName, req.Volume)
		}
	case "volumeStep":
		var req volumeRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserVolumeStep(req.SinkName, req.Step)
		}
	case "mute":
		var req muteRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserSetSinkMuteState(req.SinkName, req.Mute)
		}
	case "sinkSoundProperty":
		var req soundPropertyRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserSetMainSinkSoundProperty(req.Name, req.PropertyType, req.Value)
		}
	case "sourceSoundProperty":
		var req soundPropertyRequest
		if err = json.Unmarshal(msg.Payload(), &req); err == nil {
			err = g.ctrl.UserSetMainSourceSoundProperty(req.Name, req.PropertyType, req.Value)
		}
	default:
		err = fmt.Errorf("unknown hook %q", hook)
	}

	if err != nil {
		g.cfg.Logger.Printf("ipc: hook %s failed: %v", hook, err)
		g.publishError(hook, err)
	}
}

func lastTopicSegment(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}

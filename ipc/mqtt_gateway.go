// Package ipc implements the command-client IPC gateway: the concrete
// transport that lets an HMI or other command client reach
// controller.Controller's hook surface, and that republishes connection
// state changes and hook errors back out to clients. Grounded on
// original_source/PluginCommandInterfaceCAPI/src/CAmCommandSenderService.cpp,
// a command-sender plugin that fans inbound client requests into the
// generic controller's hook surface and fans outbound notifications back
// to clients; realized here over MQTT using
// github.com/eclipse/paho.mqtt.golang, a teacher go.mod dependency with
// no concrete use site of its own to adapt, so this package gives it one.
package ipc

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gc-audio/routingctl/controller"
	"github.com/gc-audio/routingctl/gctypes"
)

// Topic layout: clients publish a hook request to
// "<prefix>/hook/<hookName>" with a JSON body, and subscribe to
// "<prefix>/event/state" for connection state changes and
// "<prefix>/event/error" for hook requests that fail to decode or whose
// controller call returns an error (see handleHook). Errors are not
// correlated with the request that caused them.
const (
	defaultTopicPrefix = "routingctl"
	hookTopicFilter    = "/hook/+"
	stateEventTopic    = "/event/state"
	errorEventTopic    = "/event/error"
)

// MQTTGateway subscribes to a broker's hook topic tree, decodes each
// message into the request shape its hook name implies, and calls the
// matching controller.Controller method.
type MQTTGateway struct {
	client      mqtt.Client
	ctrl        *controller.Controller
	cfg         gctypes.Config
	topicPrefix string
}

// Option configures an MQTTGateway at construction time.
type Option func(*MQTTGateway)

// WithTopicPrefix overrides the default "routingctl" topic prefix.
func WithTopicPrefix(prefix string) Option {
	return func(g *MQTTGateway) { g.topicPrefix = prefix }
}

// New builds an MQTTGateway that will connect to broker (e.g.
// "tcp://localhost:1883") under clientID once Connect is called.
func New(ctrl *controller.Controller, cfg gctypes.Config, broker, clientID string, opts ...Option) *MQTTGateway {
	g := &MQTTGateway{ctrl: ctrl, cfg: cfg, topicPrefix: defaultTopicPrefix}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(g.onConnect)
	g.client = mqtt.NewClient(clientOpts)
	return g
}

// Connect opens the MQTT connection and subscribes to the hook topic
// tree. SetOnConnectHandler above re-subscribes automatically after a
// reconnect, matching paho's own recommended idiom for AutoReconnect.
func (g *MQTTGateway) Connect() error {
	token := g.client.Connect()
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker, waiting up to quiesceMS for
// in-flight publishes to drain.
func (g *MQTTGateway) Close(quiesceMS uint) {
	g.client.Disconnect(quiesceMS)
}

func (g *MQTTGateway) onConnect(client mqtt.Client) {
	topic := g.topicPrefix + hookTopicFilter
	if token := client.Subscribe(topic, 1, g.handleHook); token.Wait() && token.Error() != nil {
		g.cfg.Logger.Printf("ipc: subscribe to %s failed: %v", topic, token.Error())
	}
}

// PublishConnectionStateChange republishes a main connection's state
// change to command clients, the outbound half of
// CAmCommandSenderService.cpp's cbNewMainConnection/
// cbMainConnectionStateChanged notifications. Wire this as a
// dispatcher.Dispatcher.OnConnectionStateChange callback.
func (g *MQTTGateway) PublishConnectionStateChange(evt gctypes.ConnectionStateChangeTrigger) {
	g.publishJSON(g.topicPrefix+stateEventTopic, evt)
}

func (g *MQTTGateway) publishError(hook string, err error) {
	g.publishJSON(g.topicPrefix+errorEventTopic, map[string]string{
		"hook":  hook,
		"error": err.Error(),
	})
}

func (g *MQTTGateway) publishJSON(topic string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		g.cfg.Logger.Printf("ipc: marshal for %s failed: %v", topic, err)
		return
	}
	token := g.client.Publish(topic, 1, false, body)
	token.Wait()
	if token.Error() != nil {
		g.cfg.Logger.Printf("ipc: publish to %s failed: %v", topic, token.Error())
	}
}

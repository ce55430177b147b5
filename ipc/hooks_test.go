package ipc

import "testing"

func TestLastTopicSegment(t *testing.T) {
	cases := map[string]string{
		"routingctl/hook/connect":    "connect",
		"routingctl/hook/volumeStep": "volumeStep",
		"noSlashes":                  "noSlashes",
		"":                           "",
	}
	for topic, want := range cases {
		if got := lastTopicSegment(topic); got != want {
			t.Errorf("lastTopicSegment(%q) = %q, want %q", topic, got, want)
		}
	}
}

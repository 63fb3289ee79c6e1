package mqtt

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name     string
		actual   string
		expected string
	}{
		{
			name:     "reading",
			actual:   topics.Reading("temp-livingroom"),
			expected: "hjemme/reading/temp-livingroom",
		},
		{
			name:     "all readings wildcard",
			actual:   topics.AllReadings(),
			expected: "hjemme/reading/+",
		},
		{
			name:     "switch command",
			actual:   topics.SwitchCommand("lamp1"),
			expected: "hjemme/switch/lamp1/set",
		},
		{
			name:     "switch state",
			actual:   topics.SwitchState("lamp1"),
			expected: "hjemme/switch/lamp1/state",
		},
		{
			name:     "all switch states wildcard",
			actual:   topics.AllSwitchStates(),
			expected: "hjemme/switch/+/state",
		},
		{
			name:     "discovery",
			actual:   topics.Discovery("gateway1"),
			expected: "hjemme/discovery/gateway1",
		},
		{
			name:     "all discoveries wildcard",
			actual:   topics.AllDiscoveries(),
			expected: "hjemme/discovery/+",
		},
		{
			name:     "rule fired",
			actual:   topics.RuleFired(42),
			expected: "hjemme/automation/42/fired",
		},
		{
			name:     "system status",
			actual:   topics.SystemStatus(),
			expected: "hjemme/system/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("got %q, want %q", tt.actual, tt.expected)
			}
		})
	}
}

func TestParseReadingTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"hjemme/reading/temp-livingroom", "temp-livingroom"},
		{"hjemme/reading/electricity-price", "electricity-price"},
		{"hjemme/switch/lamp1/set", ""},
		{"other/reading/temp", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseReadingTopic(tt.topic); got != tt.want {
			t.Errorf("ParseReadingTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestParseDiscoveryTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"hjemme/discovery/gateway1", "gateway1"},
		{"hjemme/discovery/gateway1/extra", ""},
		{"hjemme/reading/temp", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseDiscoveryTopic(tt.topic); got != tt.want {
			t.Errorf("ParseDiscoveryTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestParseSwitchStateTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"hjemme/switch/lamp1/state", "lamp1"},
		{"hjemme/switch/lamp1/set", ""},
		{"hjemme/switch/state", ""},
		{"hjemme/switch//state", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseSwitchStateTopic(tt.topic); got != tt.want {
			t.Errorf("ParseSwitchStateTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestPublishValidation(t *testing.T) {
	// A zero-value client is never connected; validation errors must
	// surface before the connection check.
	c := &Client{}

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish with empty topic = %v, want ErrInvalidTopic", err)
	}

	if err := c.Publish("hjemme/test", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish with QoS 3 = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	err := c.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe with empty topic = %v, want ErrInvalidTopic", err)
	}

	err = c.Subscribe("hjemme/test", 1, nil)
	if err == nil {
		t.Error("Subscribe with nil handler expected error, got nil")
	}
}

package mqtt

import "testing"

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"zigbee2mqtt/DoorSensor", "zigbee2mqtt/DoorSensor", true},
		{"zigbee2mqtt/DoorSensor", "zigbee2mqtt/OtherSensor", false},
		{"zigbee2mqtt/+", "zigbee2mqtt/DoorSensor", true},
		{"zigbee2mqtt/+", "zigbee2mqtt/DoorSensor/extra", false},
		{"zigbee2mqtt/#", "zigbee2mqtt/DoorSensor/extra", true},
		{"zigbee2mqtt/#", "zigbee2mqtt", false},
		{"#", "anything/at/all", true},
		{"sensors/+/state", "sensors/disk/state", true},
		{"sensors/+/state", "sensors/disk/attributes", false},
	}
	for _, tt := range tests {
		if got := topicMatches(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicMatches(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

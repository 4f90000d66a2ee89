package mqtt

import "strings"

// topicMatches reports whether a delivered topic matches a
// subscription filter containing MQTT wildcards: "+" matches exactly
// one level, "#" matches the remainder of the topic (and must be the
// final level).
func topicMatches(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	for i, f := range filterLevels {
		if f == "#" {
			return true
		}
		if i >= len(topicLevels) {
			return false
		}
		if f == "+" {
			continue
		}
		if f != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}

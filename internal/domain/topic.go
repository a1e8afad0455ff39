package domain

import "strings"

// Topic classifies an article into the closed label set used for preference
// matching. Values outside the set are stored as-is but never match a user.
type Topic string

const (
	TopicMinerals           Topic = "Minerals"
	TopicTechnology         Topic = "Technology"
	TopicRealEstate         Topic = "Real Estate"
	TopicPolitics           Topic = "Politics"
	TopicHealthcare         Topic = "Healthcare"
	TopicEnergy             Topic = "Energy"
	TopicConsumerGoods      Topic = "Consumer Goods"
	TopicFinancialServices  Topic = "Financial Services"
	TopicTelecommunications Topic = "Telecommunications"
	TopicUtilities          Topic = "Utilities"
	TopicElectronics        Topic = "Electronics"
)

// Topics lists every member of the closed set, in prompt order.
func Topics() []Topic {
	return []Topic{
		TopicMinerals,
		TopicTechnology,
		TopicRealEstate,
		TopicPolitics,
		TopicHealthcare,
		TopicEnergy,
		TopicConsumerGoods,
		TopicFinancialServices,
		TopicTelecommunications,
		TopicUtilities,
		TopicElectronics,
	}
}

var topicSet = func() map[Topic]struct{} {
	set := make(map[Topic]struct{})
	for _, t := range Topics() {
		set[t] = struct{}{}
	}
	return set
}()

// Known reports whether the topic is a member of the closed set.
func (t Topic) Known() bool {
	_, ok := topicSet[t]
	return ok
}

// ParseTopic normalizes a raw label into a Topic. The second return value is
// false when the label is outside the closed set; the raw value is still
// returned so callers can store it unmodified.
func ParseTopic(raw string) (Topic, bool) {
	trimmed := Topic(strings.TrimSpace(raw))
	if trimmed.Known() {
		return trimmed, true
	}

	for known := range topicSet {
		if strings.EqualFold(string(known), string(trimmed)) {
			return known, true
		}
	}
	return trimmed, false
}

package domain

// DeliveryOutcome reports what happened after the answer was produced.
// MessageIDs holds the Slack ts of every chunk posted, in post order;
// on a mid-delivery failure the already-posted chunks stay listed and
// Error names the failing chunk.
type DeliveryOutcome struct {
	Delivered          bool     `json:"delivered"`
	DestinationChannel string   `json:"destination_channel"`
	MessageIDs         []string `json:"message_ids,omitempty"`
	Error              string   `json:"error,omitempty"`
}

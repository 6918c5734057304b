package domain

// ChannelMessage is a single message fetched from a Slack channel.
// Timestamp is the Slack ts value (seconds since epoch with a fractional part).
type ChannelMessage struct {
	AuthorID  string  `json:"author_id"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPrivate   bool   `json:"is_private"`
	MemberCount int    `json:"member_count"`
}

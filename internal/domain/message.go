package domain

// Message is a single archived room or call message.
type Message struct {
	ID        string            `json:"id"`
	AuthorID  UserID            `json:"authorId"`
	ChannelID string            `json:"channelId"`
	Tag       string            `json:"tag,omitempty"`
	Body      string            `json:"body"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp Timestamp         `json:"timestamp"`
}

// Paginated wraps one page of history. Offset/Limit echo the request so
// callers can page without extra bookkeeping.
type Paginated struct {
	Items  []Message `json:"items"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

package chat

import "time"

// Session is one persisted conversation thread. Messages keeps every turn in
// append order; nothing trims it.
type Session struct {
	ID        string    `json:"sessionId" bson:"sessionId"`
	Messages  []Message `json:"messages" bson:"messages"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy whose message slice does not alias s.
func (s Session) Clone() Session {
	out := s
	out.Messages = append(make([]Message, 0, len(s.Messages)), s.Messages...)
	return out
}

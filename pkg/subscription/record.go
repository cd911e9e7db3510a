package subscription

import "time"

// Record represents one subscriber, keyed by the LINE user ID.
type Record struct {
	UserID       string     `bson:"_id" json:"-"`
	Paid         bool       `bson:"paid" json:"paid"`
	MessageCount int64      `bson:"message_count" json:"messageCount,omitempty"`
	JoinedAt     time.Time  `bson:"joined_at" json:"joinedAt,omitzero"`
	PaidAt       *time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
}

// newRecord returns a default unpaid record for a user seen for the first time.
func newRecord(userID string, now time.Time) Record {
	return Record{UserID: userID, JoinedAt: now}
}

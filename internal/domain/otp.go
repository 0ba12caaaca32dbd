package domain

import "time"

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// OTP is one issued code. Identity is the normalized phone digit string or
// the case-folded email; exactly one form per record. Records are never
// deleted here; an older record is superseded as soon as a newer one exists.
type OTP struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Channel   Channel   `json:"channel"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

package model

import (
	"time"
)

// CartSession is the SQL storage slot of one session's cart. Payload
// holds the same JSON record the Redis slot does.
type CartSession struct {
	SessionKey string    `gorm:"primaryKey;type:varchar(100)" json:"session_key"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (CartSession) TableName() string {
	return "cart_sessions"
}

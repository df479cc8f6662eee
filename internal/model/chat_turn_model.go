package model

import "time"

// ChatTurn is one persisted history entry. Id order is append order.
type ChatTurn struct {
	Id        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionId string    `gorm:"type:varchar(128);not null;index"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Text      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}

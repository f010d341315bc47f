package models

import "time"

// Message is an append-only chat entry. System messages record membership changes.
type Message struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ChatID          uint      `gorm:"not null;index:idx_chat_msg" json:"chatId"`
	SenderID        uint      `gorm:"not null;index" json:"senderId"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	IsSystemMessage bool      `gorm:"not null;default:false" json:"isSystemMessage"`
	CreatedAt       time.Time `gorm:"index:idx_chat_msg" json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID" json:"sender"`
}

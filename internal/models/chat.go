package models

import (
	"fmt"
	"time"
)

// Chat is either a two-party direct chat or a named group chat.
// CreatedBy is the current owner; it changes when the owner leaves a group.
type Chat struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      *string `gorm:"type:text" json:"name"`
	IsGroup   bool    `gorm:"not null;default:false" json:"isGroup"`
	CreatedBy uint    `gorm:"not null;index" json:"createdBy"`
	// DirectKey is set for direct chats only. The unique index keeps one direct chat per pair.
	DirectKey *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	Participants []ChatParticipant `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Messages     []Message         `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`

	LastMessage   *Message `gorm:"-" json:"lastMessage,omitempty"`
	OnlineUserIDs []uint   `gorm:"-" json:"onlineUserIds,omitempty"`
}

// ParticipantIDs returns the user ids of the loaded participants in join order.
func (c *Chat) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// ChatParticipant links one user to one chat. CreatedAt is the join time.
type ChatParticipant struct {
	ChatID    uint      `gorm:"primaryKey;autoIncrement:false" json:"chatId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	CreatedAt time.Time `json:"joinedAt"`
	UpdatedAt time.Time `json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

// DirectKey builds the order-independent key of a direct chat between a and b.
func DirectKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

package models

import "time"

// RequestFriend is the only request type so far.
const RequestFriend = "Friend"

// FriendRequest is a pending request from Sender to Receiver.
type FriendRequest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"size:32;not null" json:"type"`
	SenderID   uint      `gorm:"index;not null" json:"sender_id"`
	ReceiverID uint      `gorm:"index;not null" json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Friendship links two users. The pair is stored once, in acceptance order.
type Friendship struct {
	User1ID   uint      `gorm:"primaryKey" json:"user1_id"`
	User2ID   uint      `gorm:"primaryKey" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// League is a named group of traders.
type League struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeagueMember records that a user joined a league.
type LeagueMember struct {
	UserID   uint `gorm:"primaryKey" json:"user_id"`
	LeagueID uint `gorm:"primaryKey" json:"league_id"`
}

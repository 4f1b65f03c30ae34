package models

import "time"

// RelationKind - тип направленной связи между пользователями
type RelationKind string

const (
	RelationFriend RelationKind = "friend"
	RelationWatch  RelationKind = "watch"
	RelationBlock  RelationKind = "block"
	RelationMute   RelationKind = "mute"
)

// FriendStatus - статус заявки в друзья, у остальных типов связей пустой
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// RelationEdge - направленная связь FromUser -> ToUser.
// Обратная связь ToUser -> FromUser хранится отдельной записью со своим жизненным циклом.
type RelationEdge struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"-"`
	Kind      RelationKind `gorm:"size:16;not null;uniqueIndex:relation_edge_key,priority:1" json:"kind"`
	FromUser  string       `gorm:"size:64;not null;uniqueIndex:relation_edge_key,priority:2" json:"from_user"`
	ToUser    string       `gorm:"size:64;not null;uniqueIndex:relation_edge_key,priority:3;index" json:"to_user"`
	Status    FriendStatus `gorm:"size:16" json:"status,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (RelationEdge) TableName() string {
	return "relation_edge"
}

package models

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
)

type Album struct {
	ID          string     `gorm:"primaryKey;size:64" json:"id"`
	OwnerID     string     `gorm:"size:64;not null;index:album_owner_created,priority:1" json:"owner_id"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Visibility  Visibility `gorm:"size:16;not null;default:public" json:"visibility"`
	CreatedAt   time.Time  `gorm:"index:album_owner_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Album) TableName() string {
	return "albums"
}

type Image struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	AlbumID    string    `gorm:"size:64;not null;index:image_album_uploader,priority:1" json:"album_id"`
	UploaderID string    `gorm:"size:64;not null;index:image_album_uploader,priority:2" json:"uploader_id"`
	StorageKey string    `gorm:"size:512;not null" json:"storage_key"`
	Caption    string    `gorm:"size:512" json:"caption,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Image) TableName() string {
	return "images"
}

// UploadQuota - счетчик загрузок пользователя в альбом, обновляется условной записью
type UploadQuota struct {
	AlbumID    string `gorm:"primaryKey;size:64"`
	UploaderID string `gorm:"primaryKey;size:64"`
	Used       int    `gorm:"not null;default:0"`
}

func (UploadQuota) TableName() string {
	return "upload_quota"
}

type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID   string    `gorm:"size:64;not null;index" json:"album_id"`
	AuthorID  string    `gorm:"size:64;not null" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

type Reaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AlbumID   string    `gorm:"size:64;not null;uniqueIndex:reaction_key,priority:1" json:"album_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:reaction_key,priority:2" json:"user_id"`
	Emoji     string    `gorm:"size:16;not null;uniqueIndex:reaction_key,priority:3" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reaction) TableName() string {
	return "reactions"
}

type Like struct {
	AlbumID   string    `gorm:"primaryKey;size:64" json:"album_id"`
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string {
	return "likes"
}

type Repost struct {
	AlbumID   string    `gorm:"primaryKey;size:64" json:"album_id"`
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Repost) TableName() string {
	return "reposts"
}

type Report struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReporterID string    `gorm:"size:64;not null;index" json:"reporter_id"`
	TargetKind string    `gorm:"size:16;not null" json:"target_kind"`
	TargetID   string    `gorm:"size:64;not null" json:"target_id"`
	Reason     string    `gorm:"size:1024" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Report) TableName() string {
	return "reports"
}

// TimelineAlbum - альбом в ленте вместе с никнеймом владельца
type TimelineAlbum struct {
	Album
	OwnerNickname string `json:"owner_nickname"`
}

// TimelineResponse - ответ API для ленты
type TimelineResponse struct {
	Albums     []TimelineAlbum `json:"albums"`
	HasMore    bool            `json:"has_more"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

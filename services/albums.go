package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"photoshare/db"
	"photoshare/logger"
	"photoshare/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageCounter считает изображения по точному совпадению альбома и автора
type ImageCounter struct {
	orm *gorm.DB
}

func NewImageCounter(orm *gorm.DB) *ImageCounter {
	return &ImageCounter{orm: orm}
}

func (c *ImageCounter) CountUploads(ctx context.Context, albumID, uploaderID string) (int64, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx, c.orm).Model(&models.Image{}).
		Where("album_id = ? AND uploader_id = ?", albumID, uploaderID).
		Count(&count).Error
	return count, err
}

type AlbumService struct {
	orm       *gorm.DB
	access    *AccessEvaluator
	publisher EventPublisher
	quota     int
}

func NewAlbumService(orm *gorm.DB, access *AccessEvaluator, publisher EventPublisher, quota int) *AlbumService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if quota <= 0 {
		quota = DefaultUploadQuota
	}
	return &AlbumService{orm: orm, access: access, publisher: publisher, quota: quota}
}

func (s *AlbumService) CreateAlbum(ctx context.Context, ownerID, title, description string, visibility models.Visibility) (*models.Album, error) {
	title = strings.TrimSpace(title)
	if ownerID == "" || title == "" {
		return nil, ErrInvalidInput("title is required")
	}
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if visibility != models.VisibilityPublic && visibility != models.VisibilityFriends {
		return nil, ErrInvalidInput("visibility must be 'public' or 'friends'")
	}

	album := &models.Album{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Visibility:  visibility,
	}
	if err := db.GetWriteDB(ctx, s.orm).Create(album).Error; err != nil {
		return nil, errUnknown("failed to create album", err)
	}
	return album, nil
}

func (s *AlbumService) loadAlbum(ctx context.Context, albumID string) (*models.Album, error) {
	if albumID == "" {
		return nil, ErrInvalidInput("album id is required")
	}
	var album models.Album
	err := db.GetReadOnlyDB(ctx, s.orm).Where("id = ?", albumID).Take(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound("album not found")
	}
	if err != nil {
		return nil, errUnknown("failed to load album", err)
	}
	return &album, nil
}

// GetAlbum возвращает альбом, если viewer может его видеть; иначе NOT_FOUND
func (s *AlbumService) GetAlbum(ctx context.Context, viewerID, albumID string) (*models.Album, error) {
	album, err := s.loadAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanViewAlbum(ctx, viewerID, album); err != nil {
		return nil, err
	}
	return album, nil
}

// ListUserAlbums - альбомы владельца, видимые viewer
func (s *AlbumService) ListUserAlbums(ctx context.Context, viewerID, ownerID string) ([]models.Album, error) {
	query := db.GetReadOnlyDB(ctx, s.orm).Where("owner_id = ?", ownerID)
	if viewerID != ownerID {
		blocked, err := s.access.IsBlockedEitherWay(ctx, viewerID, ownerID)
		if err != nil {
			return nil, errUnknown("failed to check block", err)
		}
		if blocked {
			return []models.Album{}, nil
		}
		state, err := s.access.ResolveFriendState(ctx, viewerID, ownerID)
		if err != nil {
			return nil, errUnknown("failed to resolve friend state", err)
		}
		if state != FriendAccepted {
			query = query.Where("visibility = ?", models.VisibilityPublic)
		}
	}

	var albums []models.Album
	if err := query.Order("created_at DESC").Find(&albums).Error; err != nil {
		return nil, errUnknown("failed to list albums", err)
	}
	return albums, nil
}

func (s *AlbumService) DeleteAlbum(ctx context.Context, actorID, albumID string) error {
	album, err := s.GetAlbum(ctx, actorID, albumID)
	if err != nil {
		return err
	}
	if album.OwnerID != actorID {
		return ErrForbidden("only the owner can delete the album")
	}
	err = db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Image{}, &models.UploadQuota{}, &models.Comment{},
			&models.Reaction{}, &models.Like{}, &models.Repost{},
		} {
			if err := tx.Where("album_id = ?", albumID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", albumID).Delete(&models.Album{}).Error
	})
	if err != nil {
		return errUnknown("failed to delete album", err)
	}
	return nil
}

// AddImage проверяет права и резервирует слот квоты условным обновлением счетчика
// в той же транзакции, что и вставка изображения
func (s *AlbumService) AddImage(ctx context.Context, uploaderID, albumID, storageKey, caption string) (*models.Image, error) {
	if strings.TrimSpace(storageKey) == "" {
		return nil, ErrInvalidInput("storage key is required")
	}
	album, err := s.GetAlbum(ctx, uploaderID, albumID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanUploadImage(ctx, uploaderID, album); err != nil {
		return nil, err
	}

	image := &models.Image{
		ID:         uuid.NewString(),
		AlbumID:    album.ID,
		UploaderID: uploaderID,
		StorageKey: storageKey,
		Caption:    caption,
	}
	err = db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		if err := s.reserveUploadSlot(tx, album.ID, uploaderID); err != nil {
			return err
		}
		return tx.Create(image).Error
	})
	if err != nil {
		if CodeOf(err) != CodeUnknown {
			return nil, err
		}
		return nil, errUnknown("failed to add image", err)
	}

	notifyUser(ctx, s.publisher, Event{Type: EventImageAdded, UserID: album.OwnerID, ActorID: uploaderID, AlbumID: album.ID})
	return image, nil
}

func (s *AlbumService) reserveUploadSlot(tx *gorm.DB, albumID, uploaderID string) error {
	var existing int64
	err := tx.Model(&models.Image{}).
		Where("album_id = ? AND uploader_id = ?", albumID, uploaderID).
		Count(&existing).Error
	if err != nil {
		return err
	}
	// Счетчик создается по фактическому числу изображений, дальше меняется только условной записью
	err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UploadQuota{
		AlbumID:    albumID,
		UploaderID: uploaderID,
		Used:       int(existing),
	}).Error
	if err != nil {
		return err
	}
	result := tx.Model(&models.UploadQuota{}).
		Where("album_id = ? AND uploader_id = ? AND used < ?", albumID, uploaderID, s.quota).
		Update("used", gorm.Expr("used + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLimitExceeded("upload limit for this album reached")
	}
	return nil
}

// RemoveImage - удалить может автор изображения или владелец альбома; слот квоты освобождается
func (s *AlbumService) RemoveImage(ctx context.Context, actorID, imageID string) error {
	var image models.Image
	err := db.GetReadOnlyDB(ctx, s.orm).Where("id = ?", imageID).Take(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound("image not found")
	}
	if err != nil {
		return errUnknown("failed to load image", err)
	}
	album, err := s.GetAlbum(ctx, actorID, image.AlbumID)
	if err != nil {
		return err
	}
	if actorID != image.UploaderID && actorID != album.OwnerID {
		return ErrForbidden("only the uploader or the album owner can remove the image")
	}

	err = db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", image.ID).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.UploadQuota{}).
			Where("album_id = ? AND uploader_id = ? AND used > 0", image.AlbumID, image.UploaderID).
			Update("used", gorm.Expr("used - ?", 1)).Error
	})
	if err != nil {
		return errUnknown("failed to remove image", err)
	}
	return nil
}

func (s *AlbumService) ListImages(ctx context.Context, viewerID, albumID string) ([]models.Image, error) {
	if _, err := s.GetAlbum(ctx, viewerID, albumID); err != nil {
		return nil, err
	}
	var images []models.Image
	err := db.GetReadOnlyDB(ctx, s.orm).Where("album_id = ?", albumID).Order("created_at").Find(&images).Error
	if err != nil {
		return nil, errUnknown("failed to list images", err)
	}
	return images, nil
}

// interactable: для публичного альбома блокировка возвращается как BLOCKED,
// закрытый альбом сначала проходит проверку видимости и для чужих остается NOT_FOUND
func (s *AlbumService) interactable(ctx context.Context, actorID, albumID string) (*models.Album, error) {
	album, err := s.loadAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.Visibility != models.VisibilityPublic {
		if err := s.access.CanViewAlbum(ctx, actorID, album); err != nil {
			return nil, err
		}
	}
	if err := s.access.CanInteract(ctx, actorID, album.OwnerID); err != nil {
		return nil, err
	}
	if err := s.access.CanViewAlbum(ctx, actorID, album); err != nil {
		return nil, err
	}
	return album, nil
}

func (s *AlbumService) AddComment(ctx context.Context, actorID, albumID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput("comment text is required")
	}
	album, err := s.interactable(ctx, actorID, albumID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{AlbumID: album.ID, AuthorID: actorID, Text: text}
	if err := db.GetWriteDB(ctx, s.orm).Create(comment).Error; err != nil {
		return nil, errUnknown("failed to add comment", err)
	}
	notifyUser(ctx, s.publisher, Event{
		Type:    EventAlbumComment,
		UserID:  album.OwnerID,
		ActorID: actorID,
		AlbumID: album.ID,
		Payload: map[string]string{"text": text},
	})
	return comment, nil
}

func (s *AlbumService) ListComments(ctx context.Context, viewerID, albumID string) ([]models.Comment, error) {
	if _, err := s.GetAlbum(ctx, viewerID, albumID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := db.GetReadOnlyDB(ctx, s.orm).Where("album_id = ?", albumID).Order("created_at").Find(&comments).Error
	if err != nil {
		return nil, errUnknown("failed to list comments", err)
	}
	return comments, nil
}

func (s *AlbumService) AddReaction(ctx context.Context, actorID, albumID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > 16 {
		return ErrInvalidInput("emoji is required")
	}
	album, err := s.interactable(ctx, actorID, albumID)
	if err != nil {
		return err
	}
	reaction := &models.Reaction{AlbumID: album.ID, UserID: actorID, Emoji: emoji}
	if err := db.GetWriteDB(ctx, s.orm).Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error; err != nil {
		return errUnknown("failed to add reaction", err)
	}
	notifyUser(ctx, s.publisher, Event{
		Type:    EventAlbumReaction,
		UserID:  album.OwnerID,
		ActorID: actorID,
		AlbumID: album.ID,
		Payload: map[string]string{"emoji": emoji},
	})
	return nil
}

// ToggleLike ставит или снимает лайк, возвращает новое состояние
func (s *AlbumService) ToggleLike(ctx context.Context, actorID, albumID string) (bool, error) {
	album, err := s.interactable(ctx, actorID, albumID)
	if err != nil {
		return false, err
	}
	var liked bool
	err = db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("album_id = ? AND user_id = ?", album.ID, actorID).Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Create(&models.Like{AlbumID: album.ID, UserID: actorID, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return false, errUnknown("failed to toggle like", err)
	}
	return liked, nil
}

// Repost идемпотентен для пары (пользователь, альбом)
func (s *AlbumService) Repost(ctx context.Context, actorID, albumID string) error {
	album, err := s.interactable(ctx, actorID, albumID)
	if err != nil {
		return err
	}
	if album.OwnerID == actorID {
		return ErrInvalidInput("cannot repost your own album")
	}
	repost := &models.Repost{AlbumID: album.ID, UserID: actorID, CreatedAt: time.Now()}
	if err := db.GetWriteDB(ctx, s.orm).Clauses(clause.OnConflict{DoNothing: true}).Create(repost).Error; err != nil {
		return errUnknown("failed to repost", err)
	}
	logger.Log.WithFields(logrus.Fields{"user_id": actorID, "album_id": album.ID}).Debug("album reposted")
	return nil
}

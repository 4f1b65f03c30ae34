package services

import (
	"context"

	"photoshare/db"
	"photoshare/models"

	"gorm.io/gorm"
)

const (
	DEFAULT_TIMELINE_LIMIT = 20
	MAX_TIMELINE_LIMIT     = 100
)

// TimelineService - лента альбомов друзей и тех, на кого пользователь подписан
type TimelineService struct {
	orm       *gorm.DB
	relations *RelationshipMutator
}

func NewTimelineService(orm *gorm.DB, relations *RelationshipMutator) *TimelineService {
	return &TimelineService{orm: orm, relations: relations}
}

// GetTimeline исключает скрытых (mute) и заблокированных в любую сторону пользователей,
// закрытые альбомы попадают в ленту только от принятых друзей.
// cursor - id последнего альбома предыдущей страницы.
func (s *TimelineService) GetTimeline(ctx context.Context, viewerID, cursor string, limit int) (*models.TimelineResponse, error) {
	if limit <= 0 || limit > MAX_TIMELINE_LIMIT {
		limit = DEFAULT_TIMELINE_LIMIT
	}

	friendIDs, err := s.relations.ListFriends(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	watched := s.orm.Model(&models.RelationEdge{}).Select("to_user").
		Where("kind = ? AND from_user = ?", models.RelationWatch, viewerID)
	muted := s.orm.Model(&models.RelationEdge{}).Select("to_user").
		Where("kind = ? AND from_user = ?", models.RelationMute, viewerID)
	blocking := s.orm.Model(&models.RelationEdge{}).Select("to_user").
		Where("kind = ? AND from_user = ?", models.RelationBlock, viewerID)
	blockedBy := s.orm.Model(&models.RelationEdge{}).Select("from_user").
		Where("kind = ? AND to_user = ?", models.RelationBlock, viewerID)

	query := db.GetReadOnlyDB(ctx, s.orm).
		Table("albums a").
		Select("a.*, u.nickname AS owner_nickname").
		Joins("JOIN users u ON u.id = a.owner_id").
		Where("a.owner_id <> ?", viewerID).
		Where("a.owner_id IN (?) OR a.owner_id IN ?", watched, nonEmpty(friendIDs)).
		Where("a.owner_id NOT IN (?)", muted).
		Where("a.owner_id NOT IN (?)", blocking).
		Where("a.owner_id NOT IN (?)", blockedBy).
		Where("a.visibility = ? OR a.owner_id IN ?", models.VisibilityPublic, nonEmpty(friendIDs))

	if cursor != "" {
		var exists int64
		if err := db.GetReadOnlyDB(ctx, s.orm).Model(&models.Album{}).Where("id = ?", cursor).Count(&exists).Error; err != nil {
			return nil, errUnknown("failed to check cursor", err)
		}
		if exists == 0 {
			return nil, ErrInvalidInput("invalid cursor")
		}
		// Сравнение идет со значением из базы, без повторной передачи времени параметром
		lastCreated := func() *gorm.DB {
			return s.orm.Model(&models.Album{}).Select("created_at").Where("id = ?", cursor)
		}
		query = query.Where("a.created_at < (?) OR (a.created_at = (?) AND a.id < ?)", lastCreated(), lastCreated(), cursor)
	}

	var albums []models.TimelineAlbum
	err = query.Order("a.created_at DESC, a.id DESC").Limit(limit + 1).Scan(&albums).Error
	if err != nil {
		return nil, errUnknown("failed to build timeline", err)
	}

	response := &models.TimelineResponse{Albums: albums}
	if len(albums) > limit {
		response.Albums = albums[:limit]
		response.HasMore = true
	}
	if response.Albums == nil {
		response.Albums = []models.TimelineAlbum{}
	}
	if n := len(response.Albums); n > 0 && response.HasMore {
		response.NextCursor = response.Albums[n-1].ID
	}
	return response, nil
}

// nonEmpty - IN с пустым списком должен ничего не находить
func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photoshare/db"
	"photoshare/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EdgeKey - ключ направленной связи
type EdgeKey struct {
	Kind models.RelationKind
	From string
	To   string
}

// RelationshipStore - хранилище направленных связей между пользователями
type RelationshipStore interface {
	// GetEdge возвращает nil, nil если связи нет
	GetEdge(ctx context.Context, kind models.RelationKind, from, to string) (*models.RelationEdge, error)
	SetEdge(ctx context.Context, kind models.RelationKind, from, to string, status models.FriendStatus) error
	DeleteEdge(ctx context.Context, kind models.RelationKind, from, to string) error
	// DeleteEdgesBatch удаляет все связи или ни одной
	DeleteEdgesBatch(ctx context.Context, keys []EdgeKey) error
	// LockPair сериализует транзакции над парой пользователей до конца текущей транзакции.
	// Порядок аргументов не важен.
	LockPair(ctx context.Context, a, b string) error
	// Atomically выполняет fn в одной транзакции
	Atomically(ctx context.Context, fn func(store RelationshipStore) error) error

	ListOutgoing(ctx context.Context, kind models.RelationKind, from string) ([]models.RelationEdge, error)
	ListIncoming(ctx context.Context, kind models.RelationKind, to string) ([]models.RelationEdge, error)
	// FindCascadeResidue ищет связи friend/watch между пользователями, один из которых заблокировал другого
	FindCascadeResidue(ctx context.Context) ([]EdgeKey, error)
}

type GormRelationStore struct {
	orm  *gorm.DB
	inTx bool
}

func NewGormRelationStore(orm *gorm.DB) *GormRelationStore {
	return &GormRelationStore{orm: orm}
}

func (s *GormRelationStore) reader(ctx context.Context) *gorm.DB {
	if s.inTx {
		return s.orm.WithContext(ctx)
	}
	return db.GetReadOnlyDB(ctx, s.orm)
}

func (s *GormRelationStore) writer(ctx context.Context) *gorm.DB {
	if s.inTx {
		return s.orm.WithContext(ctx)
	}
	return db.GetWriteDB(ctx, s.orm)
}

func (s *GormRelationStore) GetEdge(ctx context.Context, kind models.RelationKind, from, to string) (*models.RelationEdge, error) {
	var edge models.RelationEdge
	err := s.reader(ctx).
		Where("kind = ? AND from_user = ? AND to_user = ?", kind, from, to).
		Take(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s edge: %w", kind, err)
	}
	return &edge, nil
}

func (s *GormRelationStore) SetEdge(ctx context.Context, kind models.RelationKind, from, to string, status models.FriendStatus) error {
	now := time.Now()
	edge := models.RelationEdge{
		Kind:      kind,
		FromUser:  from,
		ToUser:    to,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.writer(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "from_user"}, {Name: "to_user"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&edge).Error
	if err != nil {
		return fmt.Errorf("failed to set %s edge: %w", kind, err)
	}
	return nil
}

func (s *GormRelationStore) DeleteEdge(ctx context.Context, kind models.RelationKind, from, to string) error {
	err := s.writer(ctx).
		Where("kind = ? AND from_user = ? AND to_user = ?", kind, from, to).
		Delete(&models.RelationEdge{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s edge: %w", kind, err)
	}
	return nil
}

func (s *GormRelationStore) DeleteEdgesBatch(ctx context.Context, keys []EdgeKey) error {
	if len(keys) == 0 {
		return nil
	}
	return s.Atomically(ctx, func(store RelationshipStore) error {
		for _, key := range keys {
			if err := store.DeleteEdge(ctx, key.Kind, key.From, key.To); err != nil {
				return err
			}
		}
		return nil
	})
}

// pairLockKey - ключ неупорядоченной пары
func pairLockKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "relation_pair:" + a + ":" + b
}

func (s *GormRelationStore) LockPair(ctx context.Context, a, b string) error {
	if !s.inTx {
		return errors.New("pair lock requires a transaction")
	}
	// SQLite и так допускает одну пишущую транзакцию
	if s.orm.Dialector.Name() != "postgres" {
		return nil
	}
	err := s.orm.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", pairLockKey(a, b)).Error
	if err != nil {
		return fmt.Errorf("failed to lock relation pair: %w", err)
	}
	return nil
}

func (s *GormRelationStore) Atomically(ctx context.Context, fn func(store RelationshipStore) error) error {
	// Вложенный вызов выполняется в уже открытой транзакции
	if s.inTx {
		return fn(s)
	}
	return db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRelationStore{orm: tx, inTx: true})
	})
}

func (s *GormRelationStore) ListOutgoing(ctx context.Context, kind models.RelationKind, from string) ([]models.RelationEdge, error) {
	var edges []models.RelationEdge
	err := s.reader(ctx).
		Where("kind = ? AND from_user = ?", kind, from).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing %s edges: %w", kind, err)
	}
	return edges, nil
}

func (s *GormRelationStore) ListIncoming(ctx context.Context, kind models.RelationKind, to string) ([]models.RelationEdge, error) {
	var edges []models.RelationEdge
	err := s.reader(ctx).
		Where("kind = ? AND to_user = ?", kind, to).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming %s edges: %w", kind, err)
	}
	return edges, nil
}

func (s *GormRelationStore) FindCascadeResidue(ctx context.Context) ([]EdgeKey, error) {
	var edges []models.RelationEdge
	err := s.reader(ctx).
		Table("relation_edge e").
		Select("e.kind, e.from_user, e.to_user").
		Where("e.kind IN ?", []models.RelationKind{models.RelationFriend, models.RelationWatch}).
		Where(`EXISTS (SELECT 1 FROM relation_edge b WHERE b.kind = ?
			AND ((b.from_user = e.from_user AND b.to_user = e.to_user)
			OR (b.from_user = e.to_user AND b.to_user = e.from_user)))`, models.RelationBlock).
		Scan(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find cascade residue: %w", err)
	}
	keys := make([]EdgeKey, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, EdgeKey{Kind: e.Kind, From: e.FromUser, To: e.ToUser})
	}
	return keys, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"photoshare/db"
	"photoshare/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB - отдельная SQLite в памяти на каждый тест
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// Одно соединение: база в памяти живет, пока оно открыто, транзакции идут по очереди
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func createTestUser(t *testing.T, orm *gorm.DB) *models.User {
	t.Helper()
	id := uuid.NewString()
	user := &models.User{
		ID:       id,
		Nickname: strings.ToLower(gofakeit.Username()) + "_" + id[:8],
		Email:    id[:8] + "@" + gofakeit.DomainName(),
		Password: "x",
	}
	require.NoError(t, orm.Create(user).Error)
	return user
}

type testServices struct {
	orm       *gorm.DB
	store     *GormRelationStore
	access    *AccessEvaluator
	relations *RelationshipMutator
	albums    *AlbumService
	publisher *recordingPublisher
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	orm := setupTestDB(t)
	publisher := &recordingPublisher{}
	store := NewGormRelationStore(orm)
	access := NewAccessEvaluator(store, NewImageCounter(orm), DefaultUploadQuota)
	return &testServices{
		orm:       orm,
		store:     store,
		access:    access,
		relations: NewRelationshipMutator(store, publisher),
		albums:    NewAlbumService(orm, access, publisher, DefaultUploadQuota),
		publisher: publisher,
	}
}

// makeFriends - заявка и принятие
func (s *testServices) makeFriends(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.relations.SendFriendRequest(ctx, a, b))
	require.NoError(t, s.relations.AcceptFriendRequest(ctx, b, a))
}

type publishedEvent struct {
	routingKey string
	event      Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{routingKey: routingKey, event: event})
	return nil
}

func (p *recordingPublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var found []publishedEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			found = append(found, e)
		}
	}
	return found
}

var errStoreDown = errors.New("store is down")

// failingStore - хранилище, которое отвечает ошибкой на любой вызов и считает вызовы
type failingStore struct {
	calls atomic.Int64
}

func (s *failingStore) GetEdge(ctx context.Context, kind models.RelationKind, from, to string) (*models.RelationEdge, error) {
	s.calls.Add(1)
	return nil, errStoreDown
}

func (s *failingStore) SetEdge(ctx context.Context, kind models.RelationKind, from, to string, status models.FriendStatus) error {
	s.calls.Add(1)
	return errStoreDown
}

func (s *failingStore) DeleteEdge(ctx context.Context, kind models.RelationKind, from, to string) error {
	s.calls.Add(1)
	return errStoreDown
}

func (s *failingStore) DeleteEdgesBatch(ctx context.Context, keys []EdgeKey) error {
	s.calls.Add(1)
	return errStoreDown
}

func (s *failingStore) LockPair(ctx context.Context, a, b string) error {
	s.calls.Add(1)
	return errStoreDown
}

func (s *failingStore) Atomically(ctx context.Context, fn func(store RelationshipStore) error) error {
	s.calls.Add(1)
	return fn(s)
}

func (s *failingStore) ListOutgoing(ctx context.Context, kind models.RelationKind, from string) ([]models.RelationEdge, error) {
	s.calls.Add(1)
	return nil, errStoreDown
}

func (s *failingStore) ListIncoming(ctx context.Context, kind models.RelationKind, to string) ([]models.RelationEdge, error) {
	s.calls.Add(1)
	return nil, errStoreDown
}

func (s *failingStore) FindCascadeResidue(ctx context.Context) ([]EdgeKey, error) {
	s.calls.Add(1)
	return nil, errStoreDown
}

type stubCounter struct {
	count int64
	err   error
}

func (c stubCounter) CountUploads(ctx context.Context, albumID, uploaderID string) (int64, error) {
	return c.count, c.err
}

package services

import (
	"context"

	"photoshare/logger"
	"photoshare/models"

	"github.com/sirupsen/logrus"
)

// FriendState - состояние дружбы с точки зрения смотрящего
type FriendState string

const (
	FriendNone     FriendState = "none"
	FriendSent     FriendState = "sent"
	FriendReceived FriendState = "received"
	FriendAccepted FriendState = "accepted"
)

// DefaultUploadQuota - сколько изображений один пользователь может загрузить в чужой (или свой) альбом
const DefaultUploadQuota = 4

// UploadCounter считает изображения пользователя в альбоме
type UploadCounter interface {
	CountUploads(ctx context.Context, albumID, uploaderID string) (int64, error)
}

// AccessEvaluator решает, что пользователь может делать с чужим профилем или альбомом.
// Любая ошибка чтения связей приводит к отказу.
type AccessEvaluator struct {
	store   RelationshipStore
	uploads UploadCounter
	quota   int
}

func NewAccessEvaluator(store RelationshipStore, uploads UploadCounter, quota int) *AccessEvaluator {
	if quota <= 0 {
		quota = DefaultUploadQuota
	}
	return &AccessEvaluator{store: store, uploads: uploads, quota: quota}
}

// ResolveFriendState: accepted в любую сторону > исходящая заявка > входящая заявка > none
func (a *AccessEvaluator) ResolveFriendState(ctx context.Context, viewerID, profileID string) (FriendState, error) {
	if viewerID == profileID {
		return FriendNone, nil
	}
	forward, err := a.store.GetEdge(ctx, models.RelationFriend, viewerID, profileID)
	if err != nil {
		return FriendNone, err
	}
	backward, err := a.store.GetEdge(ctx, models.RelationFriend, profileID, viewerID)
	if err != nil {
		return FriendNone, err
	}

	switch {
	case hasStatus(forward, models.FriendAccepted) || hasStatus(backward, models.FriendAccepted):
		return FriendAccepted, nil
	case hasStatus(forward, models.FriendPending):
		return FriendSent, nil
	case hasStatus(backward, models.FriendPending):
		return FriendReceived, nil
	default:
		return FriendNone, nil
	}
}

func hasStatus(edge *models.RelationEdge, status models.FriendStatus) bool {
	return edge != nil && edge.Status == status
}

// IsBlockedEitherWay проверяет блокировку в обе стороны
func (a *AccessEvaluator) IsBlockedEitherWay(ctx context.Context, userA, userB string) (bool, error) {
	if userA == userB {
		return false, nil
	}
	for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
		edge, err := a.store.GetEdge(ctx, models.RelationBlock, pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if edge != nil {
			return true, nil
		}
	}
	return false, nil
}

// CanViewAlbum: блокировка и закрытый альбом для не-друга выглядят как отсутствие альбома
func (a *AccessEvaluator) CanViewAlbum(ctx context.Context, viewerID string, album *models.Album) error {
	err := a.canViewAlbum(ctx, viewerID, album)
	recordDecision("view_album", err)
	return err
}

func (a *AccessEvaluator) canViewAlbum(ctx context.Context, viewerID string, album *models.Album) error {
	if album == nil {
		return ErrNotFound("album not found")
	}
	if viewerID == album.OwnerID {
		return nil
	}
	blocked, err := a.IsBlockedEitherWay(ctx, viewerID, album.OwnerID)
	if err != nil {
		return a.failClosed("view_album", viewerID, album.OwnerID, err)
	}
	if blocked {
		return ErrNotFound("album not found")
	}
	if album.Visibility != models.VisibilityFriends {
		return nil
	}
	state, err := a.ResolveFriendState(ctx, viewerID, album.OwnerID)
	if err != nil {
		return a.failClosed("view_album", viewerID, album.OwnerID, err)
	}
	if state != FriendAccepted {
		return ErrNotFound("album not found")
	}
	return nil
}

// CanUploadImage: владелец или принятый друг, не больше quota изображений от одного пользователя в альбоме.
// Окончательно квота резервируется атомарно при вставке (см. AlbumService.AddImage).
func (a *AccessEvaluator) CanUploadImage(ctx context.Context, uploaderID string, album *models.Album) error {
	err := a.canUploadImage(ctx, uploaderID, album)
	recordDecision("upload_image", err)
	return err
}

func (a *AccessEvaluator) canUploadImage(ctx context.Context, uploaderID string, album *models.Album) error {
	if album == nil {
		return ErrNotFound("album not found")
	}
	if uploaderID != album.OwnerID {
		state, err := a.ResolveFriendState(ctx, uploaderID, album.OwnerID)
		if err != nil {
			return a.failClosed("upload_image", uploaderID, album.OwnerID, err)
		}
		if state != FriendAccepted {
			return ErrForbidden("only the owner and friends can upload to this album")
		}
	}
	if a.uploads == nil {
		return nil
	}
	count, err := a.uploads.CountUploads(ctx, album.ID, uploaderID)
	if err != nil {
		return a.failClosed("upload_image", uploaderID, album.OwnerID, err)
	}
	if count >= int64(a.quota) {
		return ErrLimitExceeded("upload limit for this album reached")
	}
	return nil
}

// CanInteract - комментарии и реакции: запрещено только при блокировке в любую сторону
func (a *AccessEvaluator) CanInteract(ctx context.Context, actorID, ownerID string) error {
	err := a.canInteract(ctx, actorID, ownerID)
	recordDecision("interact", err)
	return err
}

func (a *AccessEvaluator) canInteract(ctx context.Context, actorID, ownerID string) error {
	if actorID == ownerID {
		return nil
	}
	blocked, err := a.IsBlockedEitherWay(ctx, actorID, ownerID)
	if err != nil {
		return a.failClosed("interact", actorID, ownerID, err)
	}
	if blocked {
		return ErrBlocked("interaction is blocked")
	}
	return nil
}

// CanSendFriendRequest запрещает заявку себе, при блокировке и при любой существующей заявке/дружбе
func (a *AccessEvaluator) CanSendFriendRequest(ctx context.Context, fromID, toID string) error {
	err := a.canSendFriendRequest(ctx, fromID, toID)
	recordDecision("friend_request", err)
	return err
}

func (a *AccessEvaluator) canSendFriendRequest(ctx context.Context, fromID, toID string) error {
	if fromID == "" || toID == "" {
		return ErrInvalidInput("user id is required")
	}
	if fromID == toID {
		return ErrInvalidInput("cannot send a friend request to yourself")
	}
	blocked, err := a.IsBlockedEitherWay(ctx, fromID, toID)
	if err != nil {
		return a.failClosed("friend_request", fromID, toID, err)
	}
	if blocked {
		return ErrBlocked("friend request is blocked")
	}
	state, err := a.ResolveFriendState(ctx, fromID, toID)
	if err != nil {
		return a.failClosed("friend_request", fromID, toID, err)
	}
	switch state {
	case FriendAccepted:
		return ErrInvalidInput("users are already friends")
	case FriendSent, FriendReceived:
		return ErrInvalidInput("friend request already exists")
	}
	return nil
}

// RelationSummary - все связи между смотрящим и профилем
type RelationSummary struct {
	UserID      string      `json:"user_id"`
	FriendState FriendState `json:"friend_state"`
	Watching    bool        `json:"watching"`
	WatchedBy   bool        `json:"watched_by"`
	Blocked     bool        `json:"blocked"`
	BlockedBy   bool        `json:"blocked_by"`
	Muted       bool        `json:"muted"`
}

func (a *AccessEvaluator) Summary(ctx context.Context, viewerID, profileID string) (*RelationSummary, error) {
	summary := &RelationSummary{UserID: profileID, FriendState: FriendNone}
	if viewerID == profileID {
		return summary, nil
	}
	state, err := a.ResolveFriendState(ctx, viewerID, profileID)
	if err != nil {
		return nil, errUnknown("failed to resolve friend state", err)
	}
	summary.FriendState = state

	flags := []struct {
		kind     models.RelationKind
		from, to string
		dst      *bool
	}{
		{models.RelationWatch, viewerID, profileID, &summary.Watching},
		{models.RelationWatch, profileID, viewerID, &summary.WatchedBy},
		{models.RelationBlock, viewerID, profileID, &summary.Blocked},
		{models.RelationBlock, profileID, viewerID, &summary.BlockedBy},
		{models.RelationMute, viewerID, profileID, &summary.Muted},
	}
	for _, f := range flags {
		edge, err := a.store.GetEdge(ctx, f.kind, f.from, f.to)
		if err != nil {
			return nil, errUnknown("failed to read relation", err)
		}
		*f.dst = edge != nil
	}
	return summary, nil
}

// failClosed - путь обработки ошибок авторизации: ошибка хранилища всегда означает отказ
func (a *AccessEvaluator) failClosed(check, actorID, targetID string, err error) error {
	logger.Log.WithFields(logrus.Fields{
		"check":  check,
		"actor":  actorID,
		"target": targetID,
	}).WithError(err).Error("access check failed, denying")
	return errUnknown("access check failed", err)
}

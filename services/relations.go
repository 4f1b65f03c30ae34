package services

import (
	"context"

	"photoshare/logger"
	"photoshare/models"

	"github.com/sirupsen/logrus"
)

// RelationshipMutator - изменения связей между пользователями: дружба, подписка, блокировка, скрытие
type RelationshipMutator struct {
	store     RelationshipStore
	publisher EventPublisher
}

func NewRelationshipMutator(store RelationshipStore, publisher EventPublisher) *RelationshipMutator {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &RelationshipMutator{store: store, publisher: publisher}
}

func validatePair(actorID, targetID string) error {
	if actorID == "" || targetID == "" {
		return ErrInvalidInput("user id is required")
	}
	if actorID == targetID {
		return ErrInvalidInput("cannot target yourself")
	}
	return nil
}

// cascadeKeys - связи, которые удаляются вместе с созданием блокировки
func cascadeKeys(a, b string) []EdgeKey {
	return []EdgeKey{
		{Kind: models.RelationFriend, From: a, To: b},
		{Kind: models.RelationFriend, From: b, To: a},
		{Kind: models.RelationWatch, From: a, To: b},
		{Kind: models.RelationWatch, From: b, To: a},
	}
}

// ToggleBlock блокирует или разблокирует target. Новая блокировка и удаление дружбы и подписок
// в обе стороны пишутся одной транзакцией. Разблокировка ничего не восстанавливает.
func (m *RelationshipMutator) ToggleBlock(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := validatePair(actorID, targetID); err != nil {
		return false, err
	}

	// Транзакция доводится до конца, даже если клиент отключился
	ctx = context.WithoutCancel(ctx)

	var blocked bool
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		if err := tx.LockPair(ctx, actorID, targetID); err != nil {
			return err
		}
		edge, err := tx.GetEdge(ctx, models.RelationBlock, actorID, targetID)
		if err != nil {
			return err
		}
		if edge != nil {
			blocked = false
			return tx.DeleteEdge(ctx, models.RelationBlock, actorID, targetID)
		}
		if err := tx.SetEdge(ctx, models.RelationBlock, actorID, targetID, ""); err != nil {
			return err
		}
		blocked = true
		return tx.DeleteEdgesBatch(ctx, cascadeKeys(actorID, targetID))
	})
	if err != nil {
		return false, errUnknown("failed to toggle block", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"actor":   actorID,
		"target":  targetID,
		"blocked": blocked,
	}).Info("block toggled")
	return blocked, nil
}

// ToggleMute - личный фильтр ленты, на права target не влияет
func (m *RelationshipMutator) ToggleMute(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := validatePair(actorID, targetID); err != nil {
		return false, err
	}
	return m.toggleEdge(ctx, models.RelationMute, actorID, targetID, false)
}

// ToggleWatch подписывает actor на альбомы target. Подписаться на заблокированного нельзя.
func (m *RelationshipMutator) ToggleWatch(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := validatePair(actorID, targetID); err != nil {
		return false, err
	}
	return m.toggleEdge(ctx, models.RelationWatch, actorID, targetID, true)
}

func (m *RelationshipMutator) toggleEdge(ctx context.Context, kind models.RelationKind, actorID, targetID string, denyIfBlocked bool) (bool, error) {
	var exists bool
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		edge, err := tx.GetEdge(ctx, kind, actorID, targetID)
		if err != nil {
			return err
		}
		if edge != nil {
			exists = false
			return tx.DeleteEdge(ctx, kind, actorID, targetID)
		}
		if denyIfBlocked {
			blocked, err := NewAccessEvaluator(tx, nil, 0).IsBlockedEitherWay(ctx, actorID, targetID)
			if err != nil {
				return err
			}
			if blocked {
				return ErrBlocked("user is blocked")
			}
		}
		exists = true
		return tx.SetEdge(ctx, kind, actorID, targetID, "")
	})
	if err != nil {
		if CodeOf(err) != CodeUnknown {
			return false, err
		}
		return false, errUnknown("failed to toggle "+string(kind), err)
	}
	return exists, nil
}

// SendFriendRequest создает заявку from -> to со статусом pending
func (m *RelationshipMutator) SendFriendRequest(ctx context.Context, fromID, toID string) error {
	if err := validatePair(fromID, toID); err != nil {
		return err
	}
	// Встречные заявки A -> B и B -> A не должны пройти проверку одновременно
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		if err := tx.LockPair(ctx, fromID, toID); err != nil {
			return err
		}
		if err := NewAccessEvaluator(tx, nil, 0).CanSendFriendRequest(ctx, fromID, toID); err != nil {
			return err
		}
		return tx.SetEdge(ctx, models.RelationFriend, fromID, toID, models.FriendPending)
	})
	if err != nil {
		return m.wrap("failed to send friend request", err)
	}
	notifyUser(ctx, m.publisher, Event{Type: EventFriendRequest, UserID: toID, ActorID: fromID})
	return nil
}

// AcceptFriendRequest - получатель принимает заявку requester -> recipient.
// Обратная запись не создается: accepted проверяется в обе стороны.
func (m *RelationshipMutator) AcceptFriendRequest(ctx context.Context, recipientID, requesterID string) error {
	if err := validatePair(recipientID, requesterID); err != nil {
		return err
	}
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		edge, err := tx.GetEdge(ctx, models.RelationFriend, requesterID, recipientID)
		if err != nil {
			return err
		}
		if !hasStatus(edge, models.FriendPending) {
			return ErrNotFound("friend request not found")
		}
		return tx.SetEdge(ctx, models.RelationFriend, requesterID, recipientID, models.FriendAccepted)
	})
	if err != nil {
		return m.wrap("failed to accept friend request", err)
	}
	notifyUser(ctx, m.publisher, Event{Type: EventFriendAccepted, UserID: requesterID, ActorID: recipientID})
	return nil
}

// DeclineFriendRequest - получатель отклоняет заявку requester -> recipient
func (m *RelationshipMutator) DeclineFriendRequest(ctx context.Context, recipientID, requesterID string) error {
	if err := validatePair(recipientID, requesterID); err != nil {
		return err
	}
	return m.deletePending(ctx, requesterID, recipientID, "failed to decline friend request")
}

// CancelFriendRequest - отправитель отзывает свою заявку, пока она в состоянии sent
func (m *RelationshipMutator) CancelFriendRequest(ctx context.Context, requesterID, targetID string) error {
	if err := validatePair(requesterID, targetID); err != nil {
		return err
	}
	return m.deletePending(ctx, requesterID, targetID, "failed to cancel friend request")
}

func (m *RelationshipMutator) deletePending(ctx context.Context, fromID, toID, message string) error {
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		edge, err := tx.GetEdge(ctx, models.RelationFriend, fromID, toID)
		if err != nil {
			return err
		}
		if !hasStatus(edge, models.FriendPending) {
			return ErrNotFound("friend request not found")
		}
		return tx.DeleteEdge(ctx, models.RelationFriend, fromID, toID)
	})
	if err != nil {
		return m.wrap(message, err)
	}
	return nil
}

// RemoveFriend удаляет дружбу в обе стороны, независимо от того, какая запись хранит accepted
func (m *RelationshipMutator) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if err := validatePair(userID, friendID); err != nil {
		return err
	}
	err := m.store.Atomically(ctx, func(tx RelationshipStore) error {
		state, err := NewAccessEvaluator(tx, nil, 0).ResolveFriendState(ctx, userID, friendID)
		if err != nil {
			return err
		}
		if state != FriendAccepted {
			return ErrNotFound("friendship not found")
		}
		return tx.DeleteEdgesBatch(ctx, []EdgeKey{
			{Kind: models.RelationFriend, From: userID, To: friendID},
			{Kind: models.RelationFriend, From: friendID, To: userID},
		})
	})
	if err != nil {
		return m.wrap("failed to remove friend", err)
	}
	return nil
}

// ListFriends возвращает id принятых друзей
func (m *RelationshipMutator) ListFriends(ctx context.Context, userID string) ([]string, error) {
	outgoing, err := m.store.ListOutgoing(ctx, models.RelationFriend, userID)
	if err != nil {
		return nil, errUnknown("failed to list friends", err)
	}
	incoming, err := m.store.ListIncoming(ctx, models.RelationFriend, userID)
	if err != nil {
		return nil, errUnknown("failed to list friends", err)
	}

	seen := make(map[string]struct{})
	friends := make([]string, 0, len(outgoing)+len(incoming))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		friends = append(friends, id)
	}
	for _, e := range outgoing {
		if e.Status == models.FriendAccepted {
			add(e.ToUser)
		}
	}
	for _, e := range incoming {
		if e.Status == models.FriendAccepted {
			add(e.FromUser)
		}
	}
	return friends, nil
}

// ListPendingRequests возвращает входящие заявки
func (m *RelationshipMutator) ListPendingRequests(ctx context.Context, userID string) ([]models.RelationEdge, error) {
	incoming, err := m.store.ListIncoming(ctx, models.RelationFriend, userID)
	if err != nil {
		return nil, errUnknown("failed to list friend requests", err)
	}
	pending := make([]models.RelationEdge, 0, len(incoming))
	for _, e := range incoming {
		if e.Status == models.FriendPending {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// ListOutgoing возвращает исходящие связи заданного типа (подписки, блокировки, скрытые)
func (m *RelationshipMutator) ListOutgoing(ctx context.Context, kind models.RelationKind, userID string) ([]models.RelationEdge, error) {
	edges, err := m.store.ListOutgoing(ctx, kind, userID)
	if err != nil {
		return nil, errUnknown("failed to list relations", err)
	}
	return edges, nil
}

// ReconcileBlockCascades удаляет дружбу и подписки, оставшиеся рядом с блокировкой
// (например, заявка, отправленная одновременно с блокировкой)
func (m *RelationshipMutator) ReconcileBlockCascades(ctx context.Context) (int, error) {
	residue, err := m.store.FindCascadeResidue(ctx)
	if err != nil {
		return 0, errUnknown("failed to reconcile blocks", err)
	}
	if len(residue) == 0 {
		return 0, nil
	}
	if err := m.store.DeleteEdgesBatch(ctx, residue); err != nil {
		return 0, errUnknown("failed to reconcile blocks", err)
	}
	cascadeRepairsTotal.Add(float64(len(residue)))
	logger.Log.WithField("edges", len(residue)).Warn("removed relations left next to blocks")
	return len(residue), nil
}

// wrap сохраняет коды ошибок сервиса, остальное - UNKNOWN
func (m *RelationshipMutator) wrap(message string, err error) error {
	if CodeOf(err) != CodeUnknown {
		return err
	}
	return errUnknown(message, err)
}

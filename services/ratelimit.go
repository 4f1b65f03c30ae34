package services

import (
	"context"
	"math"
	"sync"
	"time"

	"photoshare/config"
	"photoshare/logger"

	"github.com/sirupsen/logrus"
)

// Типы действий с отдельными лимитами
const (
	ActionRegistration  = "registration"
	ActionLogin         = "login"
	ActionComment       = "comment"
	ActionAlbumCreate   = "album_create"
	ActionImageAdd      = "image_add"
	ActionReaction      = "reaction"
	ActionBlock         = "block"
	ActionMute          = "mute"
	ActionWatch         = "watch"
	ActionFriendRequest = "friend_request"
	ActionReport        = "report"
	ActionPasswordReset = "password_reset"
	// Подтверждение сброса ограничивается по IP отдельно от запроса письма
	ActionPasswordResetConfirm = "password_reset_confirm"
)

// RateDecision - результат проверки лимита
type RateDecision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// RetryAfterSeconds округляет вверх, минимум 1 секунда
func (d RateDecision) RetryAfterSeconds() int {
	seconds := int(math.Ceil(d.RetryAfter.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// RateLimiter - счетчик с фиксированным окном: не более maxCount запросов по ключу за window.
// На границе окна возможен двойной всплеск, это допустимо.
type RateLimiter interface {
	Check(ctx context.Context, key string, maxCount int, window time.Duration) (RateDecision, error)
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter хранит счетчики в памяти процесса
type MemoryRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     time.Now,
	}
}

func (r *MemoryRateLimiter) Check(ctx context.Context, key string, maxCount int, window time.Duration) (RateDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket, ok := r.buckets[key]
	if !ok || now.After(bucket.resetAt) {
		r.buckets[key] = &rateBucket{count: 1, resetAt: now.Add(window)}
		return RateDecision{Allowed: true, Count: 1}, nil
	}
	if bucket.count >= maxCount {
		return RateDecision{Allowed: false, Count: bucket.count, RetryAfter: bucket.resetAt.Sub(now)}, nil
	}
	bucket.count++
	return RateDecision{Allowed: true, Count: bucket.count}, nil
}

// Sweep удаляет истекшие окна
func (r *MemoryRateLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, bucket := range r.buckets {
		if now.After(bucket.resetAt) {
			delete(r.buckets, key)
			removed++
		}
	}
	return removed
}

// ActionLimiter применяет лимиты по типу действия, у каждого действия свое пространство ключей
type ActionLimiter struct {
	limiter RateLimiter
	limits  map[string]config.LimitConfig
}

func NewActionLimiter(limiter RateLimiter, limits map[string]config.LimitConfig) *ActionLimiter {
	merged := make(map[string]config.LimitConfig, len(config.DefaultLimits))
	for action, limit := range config.DefaultLimits {
		merged[action] = limit
	}
	for action, limit := range limits {
		if limit.Max > 0 && limit.Window > 0 {
			merged[action] = limit
		}
	}
	return &ActionLimiter{limiter: limiter, limits: merged}
}

// Allow возвращает RATE_LIMITED при превышении лимита.
// Ошибка самого лимитера пропускает запрос: доступность важнее точного учета.
func (l *ActionLimiter) Allow(ctx context.Context, action, key string) error {
	limit, ok := l.limits[action]
	if !ok {
		logger.Log.WithField("action", action).Warn("no rate limit configured for action")
		recordRateLimit(action, "unconfigured")
		return nil
	}

	decision, err := l.limiter.Check(ctx, action+":"+key, limit.Max, limit.Window)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"action": action,
			"key":    key,
		}).WithError(err).Warn("rate limiter failed, allowing request")
		recordRateLimit(action, "error")
		return nil
	}
	if !decision.Allowed {
		recordRateLimit(action, "deny")
		return ErrRateLimited(decision.RetryAfterSeconds())
	}
	recordRateLimit(action, "allow")
	return nil
}

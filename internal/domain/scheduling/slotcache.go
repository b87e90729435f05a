package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/platform/cache"
)

const slotCacheTTL = 5 * time.Minute

// SlotCache caches derived slots per specialist per date. Writes to the
// appointments table invalidate the affected day, so a hit is at most
// slotCacheTTL stale and only for changes made outside this server.
type SlotCache struct {
	cache  cache.Cache
	logger zerolog.Logger
}

func NewSlotCache(c cache.Cache, logger zerolog.Logger) *SlotCache {
	return &SlotCache{cache: c, logger: logger}
}

func dayKey(specialistID uuid.UUID, date string) string {
	return fmt.Sprintf("slots:%s:%s", specialistID, date)
}

func (sc *SlotCache) GetDay(ctx context.Context, specialistID uuid.UUID, date string) ([]TimeSlot, bool) {
	b, err := sc.cache.Get(ctx, dayKey(specialistID, date))
	if err != nil {
		return nil, false
	}
	var slots []TimeSlot
	if err := json.Unmarshal(b, &slots); err != nil {
		sc.logger.Warn().Err(err).Msg("corrupt slot cache entry")
		return nil, false
	}
	return slots, true
}

func (sc *SlotCache) SetDay(ctx context.Context, specialistID uuid.UUID, date string, slots []TimeSlot) {
	b, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := sc.cache.Set(ctx, dayKey(specialistID, date), b, slotCacheTTL); err != nil {
		sc.logger.Warn().Err(err).Msg("slot cache set failed")
	}
}

// InvalidateAvailability drops the cached day. Satisfies
// appointment.CacheInvalidator.
func (sc *SlotCache) InvalidateAvailability(ctx context.Context, specialistID uuid.UUID, date string) {
	if err := sc.cache.Delete(ctx, dayKey(specialistID, date)); err != nil {
		sc.logger.Warn().Err(err).Msg("slot cache invalidation failed")
	}
}

// InvalidateSpecialist drops every cached day for a specialist. Used when
// the weekly rules or time off change.
func (sc *SlotCache) InvalidateSpecialist(ctx context.Context, specialistID uuid.UUID) {
	if err := sc.cache.DeletePrefix(ctx, fmt.Sprintf("slots:%s:", specialistID)); err != nil {
		sc.logger.Warn().Err(err).Msg("slot cache invalidation failed")
	}
}

package achievements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// Evaluator grants badges a user has newly qualified for. It holds no state
// between runs; uniqueness of (user, badge type) is enforced by the BadgeStore.
type Evaluator struct {
	activity domain.ActivityStore
	badges   domain.BadgeStore
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewEvaluator creates an evaluator. metrics may be nil.
func NewEvaluator(activity domain.ActivityStore, badges domain.BadgeStore, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		activity: activity,
		badges:   badges,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Snapshot computes the user's activity aggregates from the store.
func (e *Evaluator) Snapshot(ctx context.Context, userID domain.UserID) (domain.ActivitySnapshot, error) {
	var (
		snap domain.ActivitySnapshot
		err  error
	)

	if snap.MoodEntries, err = e.activity.CountMoodEntries(ctx, userID); err != nil {
		return snap, fmt.Errorf("count mood entries: %w", err)
	}
	if snap.JournalEntries, err = e.activity.CountJournalEntries(ctx, userID); err != nil {
		return snap, fmt.Errorf("count journal entries: %w", err)
	}
	if snap.ChatMessages, err = e.activity.CountUserChatMessages(ctx, userID); err != nil {
		return snap, fmt.Errorf("count chat messages: %w", err)
	}

	levels, err := e.activity.RecentMoodLevels(ctx, userID, PositiveVibesWindow)
	if err != nil {
		return snap, fmt.Errorf("recent mood levels: %w", err)
	}
	if len(levels) >= PositiveVibesWindow {
		levels = levels[:PositiveVibesWindow]
		sum := 0
		for _, l := range levels {
			sum += l
		}
		snap.RecentMoodAverage = float64(sum) / float64(len(levels))
		snap.HasMoodAverage = true
	}

	return snap, nil
}

// Evaluate checks every badge definition and creates the ones the user now
// qualifies for and does not hold yet. It returns only newly created badges.
// Losing a creation race to a concurrent run is not an error.
func (e *Evaluator) Evaluate(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error) {
	ctx, span := observability.Tracer().Start(ctx, "achievements.Evaluate")
	defer span.End()

	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	snap, err := e.Snapshot(ctx, userID)
	if err != nil {
		span.RecordError(err)
		log.Error("failed to build activity snapshot", "error", err)
		return nil, err
	}

	var (
		granted []*domain.EarnedBadge
		errs    []error
	)

	for _, def := range definitions {
		if !def.Qualifies(snap) {
			continue
		}

		has, err := e.badges.HasBadge(ctx, userID, def.Type)
		if err != nil {
			errs = append(errs, &domain.PersistenceError{Op: "has_badge", Err: err})
			e.metrics.PersistenceFailed("has_badge")
			continue
		}
		if has {
			continue
		}

		badge := &domain.EarnedBadge{
			ID:          domain.BadgeID(uuid.NewString()),
			UserID:      userID,
			Type:        def.Type,
			Name:        def.Name,
			Description: def.Description,
			EarnedAt:    e.now(),
		}
		created, err := e.badges.CreateBadge(ctx, badge)
		if err != nil {
			errs = append(errs, &domain.PersistenceError{Op: "create_badge", Err: err})
			e.metrics.PersistenceFailed("create_badge")
			continue
		}
		if !created {
			log.Debug("badge already granted by a concurrent run", "badge_type", def.Type)
			continue
		}

		e.metrics.BadgeGranted(def.Type)
		log.Info("badge granted", "badge_type", def.Type)
		granted = append(granted, badge)
	}

	span.SetAttributes(attribute.Int("badges.granted", len(granted)))

	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		log.Warn("achievement evaluation finished with errors", "error", err)
		return granted, err
	}
	return granted, nil
}

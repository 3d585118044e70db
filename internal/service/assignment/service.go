package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pharmadispatch/internal/apperr"
	"pharmadispatch/internal/config"
	"pharmadispatch/internal/dispatch"
	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/geo"
	"pharmadispatch/internal/logx"
	"pharmadispatch/internal/ports/dispatchtx"
)

// Assignment outcome labels.
const (
	outcomeAssigned    = "assigned"
	outcomeNoCourier   = "no_courier"
	outcomeNotEligible = "not_eligible"
	outcomeFailed      = "failed"
)

// defaultBulkLimit bounds one bulk run when the caller does not.
const defaultBulkLimit = 100

// Service drives the delivery state machine. Every operation runs as one
// transaction: the delivery row is locked first, the precondition is checked
// under the lock, and courier occupancy moves together with the delivery.
type Service struct {
	repo             repository
	settle           settler
	notify           notifier
	cfg              config.Dispatch
	outcomes         *prometheus.CounterVec
	settlements      prometheus.Counter
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates and configures an assignment Service.
func NewService(
	repo repository,
	settle settler,
	notify notifier,
	cfg config.Dispatch,
	outcomes *prometheus.CounterVec,
	settlements prometheus.Counter,
	timeout time.Duration,
	logger logx.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		repo:             repo,
		settle:           settle,
		notify:           notify,
		cfg:              cfg,
		outcomes:         outcomes,
		settlements:      settlements,
		operationTimeout: timeout,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Assign picks the best candidate for a pending delivery and assigns it.
// An already-assigned or terminated delivery reports ErrNotEligible and an
// empty candidate set reports ErrNoCourierAvailable; both leave the delivery
// untouched and are expected outcomes, not faults.
func (s *Service) Assign(ctx context.Context, deliveryID int64) (*domain.AssignResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.assign(ctx, deliveryID, nil)
	s.countOutcome(err)
	if err != nil {
		return nil, err
	}

	s.notifyAssigned(ctx, *result)
	return result, nil
}

// assign runs the filter-score-assign sequence in one transaction, excluding
// the given courier IDs from candidacy.
func (s *Service) assign(ctx context.Context, deliveryID int64, exclude map[int64]struct{}) (*domain.AssignResult, error) {
	var result *domain.AssignResult
	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.ErrNotFound
		}
		if d.Status != domain.DeliveryPending || d.CourierID != nil {
			return apperr.ErrNotEligible
		}

		best, err := s.pickEligibleCourier(ctx, tx, d.Pickup, exclude)
		if err != nil {
			return err
		}

		at := s.now()
		if err := tx.SetDeliveryAssigned(ctx, d.ID, best.Courier.ID, at); err != nil {
			return err
		}
		if err := s.reconcileCourierStatus(ctx, tx, best.Courier.ID); err != nil {
			return err
		}

		result = &domain.AssignResult{
			DeliveryID: d.ID,
			OrderID:    d.OrderID,
			CourierID:  best.Courier.ID,
			Score:      best.Score,
			AssignedAt: at,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery assigned",
		logx.Int64("delivery_id", result.DeliveryID),
		logx.Int64("courier_id", result.CourierID),
		logx.Float64("score", result.Score),
	)
	return result, nil
}

// pickEligibleCourier picks the best candidate and confirms its capacity
// under the courier row lock. The candidate listing reads active counts
// without locking courier rows, so a concurrent assignment can fill a
// courier's last slot between the listing and the lock; such couriers are
// skipped and the next best is tried until the pool runs out.
func (s *Service) pickEligibleCourier(ctx context.Context, tx dispatchtx.Repository, pickup *geo.Point, exclude map[int64]struct{}) (*dispatch.Scored, error) {
	tried := make(map[int64]struct{}, len(exclude))
	for id := range exclude {
		tried[id] = struct{}{}
	}
	for {
		best, err := s.pickCourier(ctx, tx, pickup, tried)
		if err != nil {
			return nil, err
		}
		ok, err := s.courierHasCapacity(ctx, tx, best.Courier.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			return best, nil
		}
		tried[best.Courier.ID] = struct{}{}
	}
}

func (s *Service) courierHasCapacity(ctx context.Context, tx dispatchtx.Repository, courierID int64) (bool, error) {
	c, err := tx.GetCourierForUpdate(ctx, courierID)
	if err != nil {
		return false, err
	}
	if c == nil || c.Status != domain.CourierAvailable {
		return false, nil
	}
	active, err := tx.CountActiveDeliveries(ctx, courierID)
	if err != nil {
		return false, err
	}
	return active < s.cfg.MaxActiveDeliveries, nil
}

// pickCourier loads the candidate pool and returns the highest-scoring
// eligible courier.
func (s *Service) pickCourier(ctx context.Context, tx dispatchtx.Repository, pickup *geo.Point, exclude map[int64]struct{}) (*dispatch.Scored, error) {
	pool, err := tx.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	eligible := dispatch.Filter(pool, pickup, exclude, s.cfg)
	best := dispatch.Best(eligible, pickup, s.now(), s.cfg)
	if best == nil {
		return nil, apperr.ErrNoCourierAvailable
	}
	return best, nil
}

// ManualAssign assigns a caller-chosen courier, bypassing filtering and
// scoring. The delivery precondition and occupancy bookkeeping still apply.
func (s *Service) ManualAssign(ctx context.Context, deliveryID, courierID int64) (*domain.AssignResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result *domain.AssignResult
	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.ErrNotFound
		}
		if d.Status != domain.DeliveryPending || d.CourierID != nil {
			return apperr.ErrNotEligible
		}

		c, err := tx.GetCourierForUpdate(ctx, courierID)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.ErrNotFound
		}

		at := s.now()
		if err := tx.SetDeliveryAssigned(ctx, d.ID, courierID, at); err != nil {
			return err
		}
		if err := s.reconcileCourierStatus(ctx, tx, courierID); err != nil {
			return err
		}

		result = &domain.AssignResult{
			DeliveryID: d.ID,
			OrderID:    d.OrderID,
			CourierID:  courierID,
			AssignedAt: at,
		}
		return nil
	})
	s.countOutcome(err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery assigned manually",
		logx.Int64("delivery_id", result.DeliveryID),
		logx.Int64("courier_id", result.CourierID),
	)
	s.notifyAssigned(ctx, *result)
	return result, nil
}

// Reassign releases the current courier, resets the delivery to pending with
// the given reason, and retries assignment excluding that courier. The reset
// is committed even when no replacement is found; in that case the delivery
// stays pending and ErrNoCourierAvailable is reported.
func (s *Service) Reassign(ctx context.Context, deliveryID int64, reason string) (*domain.AssignResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var previous int64
	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.ErrNotFound
		}
		if _, ok := d.Status.Next(domain.EventRelease); !ok || d.CourierID == nil {
			return apperr.ErrNotEligible
		}

		previous = *d.CourierID
		if err := tx.ResetDeliveryToPending(ctx, d.ID, reason); err != nil {
			return err
		}
		return s.reconcileCourierStatus(ctx, tx, previous)
	})
	if err != nil {
		s.countOutcome(err)
		return nil, err
	}

	s.logger.Info("delivery released",
		logx.Int64("delivery_id", deliveryID),
		logx.Int64("previous_courier_id", previous),
		logx.String("reason", reason),
	)

	result, err := s.assign(ctx, deliveryID, map[int64]struct{}{previous: {}})
	s.countOutcome(err)
	if err != nil {
		return nil, err
	}

	s.notifyAssigned(ctx, *result)
	return result, nil
}

// BulkAssign runs Assign over pending deliveries independently. Individual
// failures never abort the batch; the report carries per-outcome counts.
func (s *Service) BulkAssign(ctx context.Context, limit int) (domain.BulkAssignReport, error) {
	if limit <= 0 {
		limit = defaultBulkLimit
	}

	ids, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return domain.BulkAssignReport{}, err
	}

	var report domain.BulkAssignReport
	for _, id := range ids {
		_, err := s.Assign(ctx, id)
		switch {
		case err == nil:
			report.Assigned++
		case errors.Is(err, apperr.ErrNoCourierAvailable):
			report.NoCourier++
		case errors.Is(err, apperr.ErrNotEligible):
			report.NotEligible++
		default:
			report.Failed++
			s.logger.Error("bulk assign item failed",
				logx.Int64("delivery_id", id),
				logx.Any("error", err),
			)
		}
	}

	s.logger.Info("bulk assign finished",
		logx.Int("total", report.Total()),
		logx.Int("assigned", report.Assigned),
		logx.Int("no_courier", report.NoCourier),
		logx.Int("not_eligible", report.NotEligible),
		logx.Int("failed", report.Failed),
	)
	return report, nil
}

// Accept records the assigned courier taking the delivery. The courier's
// available balance must cover the commission; the gate runs inside the same
// transaction as the transition.
func (s *Service) Accept(ctx context.Context, deliveryID, courierID int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := s.lockOwnDelivery(ctx, tx, deliveryID, courierID)
		if err != nil {
			return err
		}
		next, ok := d.Status.Next(domain.EventAccept)
		if !ok {
			return apperr.ErrNotEligible
		}
		if err := s.settle.CanAcceptWorkTx(ctx, tx, courierID); err != nil {
			return err
		}
		return tx.SetDeliveryStatus(ctx, d.ID, next, s.now())
	})
}

// Pickup records the courier collecting the order from the pharmacy.
func (s *Service) Pickup(ctx context.Context, deliveryID, courierID int64) error {
	return s.progress(ctx, deliveryID, courierID, domain.EventPickup)
}

// Transit records the courier heading to the dropoff point.
func (s *Service) Transit(ctx context.Context, deliveryID, courierID int64) error {
	return s.progress(ctx, deliveryID, courierID, domain.EventTransit)
}

func (s *Service) progress(ctx context.Context, deliveryID, courierID int64, event domain.DeliveryEvent) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := s.lockOwnDelivery(ctx, tx, deliveryID, courierID)
		if err != nil {
			return err
		}
		next, ok := d.Status.Next(event)
		if !ok {
			return apperr.ErrNotEligible
		}
		return tx.SetDeliveryStatus(ctx, d.ID, next, s.now())
	})
}

// Complete terminates the delivery as delivered and settles money in the
// same transaction: the courier earns the delivery fee, the platform
// collects its commission, the courier's lifetime count goes up and its
// status is reconciled against the freed capacity.
func (s *Service) Complete(ctx context.Context, deliveryID, courierID int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := s.lockOwnDelivery(ctx, tx, deliveryID, courierID)
		if err != nil {
			return err
		}
		next, ok := d.Status.Next(domain.EventDeliver)
		if !ok {
			return apperr.ErrNotEligible
		}
		if err := tx.SetDeliveryStatus(ctx, d.ID, next, s.now()); err != nil {
			return err
		}
		if err := s.settle.SettleDeliveryTx(ctx, tx, courierID, d.ID, d.Totals.DeliveryFee); err != nil {
			return err
		}
		if err := tx.IncrementCompletedDeliveries(ctx, courierID); err != nil {
			return err
		}
		return s.reconcileCourierStatus(ctx, tx, courierID)
	})
	if err != nil {
		return err
	}

	s.settlements.Inc()
	s.logger.Info("delivery completed",
		logx.Int64("delivery_id", deliveryID),
		logx.Int64("courier_id", courierID),
	)
	return nil
}

// Cancel terminates a non-terminal delivery with a reason and frees the
// courier's slot when one was assigned.
func (s *Service) Cancel(ctx context.Context, deliveryID int64, reason string) error {
	return s.terminate(ctx, deliveryID, domain.EventCancel, reason)
}

// Fail marks a non-terminal delivery as failed with a reason.
func (s *Service) Fail(ctx context.Context, deliveryID int64, reason string) error {
	return s.terminate(ctx, deliveryID, domain.EventFail, reason)
}

func (s *Service) terminate(ctx context.Context, deliveryID int64, event domain.DeliveryEvent, reason string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.repo.WithTx(ctx, func(tx dispatchtx.Repository) error {
		d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.ErrNotFound
		}
		next, ok := d.Status.Next(event)
		if !ok {
			return apperr.ErrNotEligible
		}
		if err := tx.SetDeliveryStatus(ctx, d.ID, next, s.now()); err != nil {
			return err
		}
		if reason != "" {
			if err := tx.SetDeliveryCancelReason(ctx, d.ID, reason); err != nil {
				return err
			}
		}
		if d.CourierID != nil {
			return s.reconcileCourierStatus(ctx, tx, *d.CourierID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("delivery terminated",
		logx.Int64("delivery_id", deliveryID),
		logx.String("event", string(event)),
		logx.String("reason", reason),
	)
	return nil
}

// lockOwnDelivery locks the delivery and verifies it belongs to the courier.
func (s *Service) lockOwnDelivery(ctx context.Context, tx dispatchtx.Repository, deliveryID, courierID int64) (*domain.Delivery, error) {
	d, err := tx.GetDeliveryForUpdate(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.ErrNotFound
	}
	if d.CourierID == nil || *d.CourierID != courierID {
		return nil, apperr.ErrNotEligible
	}
	return d, nil
}

// reconcileCourierStatus is the single place the busy/available flip lives.
// It re-derives the courier's status from its current active-delivery count,
// so calling it more than once after a change is harmless. Statuses other
// than available and busy are operator-owned and never touched here.
func (s *Service) reconcileCourierStatus(ctx context.Context, tx dispatchtx.Repository, courierID int64) error {
	c, err := tx.GetCourierForUpdate(ctx, courierID)
	if err != nil {
		return err
	}
	if c == nil {
		return apperr.ErrNotFound
	}
	if c.Status != domain.CourierAvailable && c.Status != domain.CourierBusy {
		return nil
	}

	active, err := tx.CountActiveDeliveries(ctx, courierID)
	if err != nil {
		return err
	}

	want := domain.CourierAvailable
	if active >= s.cfg.MaxActiveDeliveries {
		want = domain.CourierBusy
	}
	if want == c.Status {
		return nil
	}
	return tx.UpdateCourierStatus(ctx, courierID, want)
}

func (s *Service) countOutcome(err error) {
	switch {
	case err == nil:
		s.outcomes.WithLabelValues(outcomeAssigned).Inc()
	case errors.Is(err, apperr.ErrNoCourierAvailable):
		s.outcomes.WithLabelValues(outcomeNoCourier).Inc()
	case errors.Is(err, apperr.ErrNotEligible):
		s.outcomes.WithLabelValues(outcomeNotEligible).Inc()
	case errors.Is(err, apperr.ErrNotFound):
		// not an assignment outcome
	default:
		s.outcomes.WithLabelValues(outcomeFailed).Inc()
	}
}

func (s *Service) notifyAssigned(ctx context.Context, r domain.AssignResult) {
	if s.notify == nil {
		return
	}
	if err := s.notify.NotifyAssigned(ctx, r); err != nil {
		s.logger.Warn("assignment notification failed",
			logx.Int64("delivery_id", r.DeliveryID),
			logx.Int64("courier_id", r.CourierID),
			logx.Any("error", err),
		)
	}
}

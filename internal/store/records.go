package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"minutri/internal/model"
	"minutri/pkg/metrics"
)

// recordKey addresses one whole-record document.
type recordKey struct {
	UserID    int
	Namespace string
}

// String renders the key as "<ns>:<user>" or "<kind>:<user>:<module>".
func (k recordKey) String() string {
	kind, module, found := strings.Cut(k.Namespace, ":")
	if !found {
		return fmt.Sprintf("%s:%d", kind, k.UserID)
	}
	return fmt.Sprintf("%s:%d:%s", kind, k.UserID, module)
}

type write struct {
	Key     recordKey
	Payload []byte
}

// batch is applied atomically by a backend. When ResetUser is set every
// record of the user is removed before the writes land.
type batch struct {
	UserID    int
	ResetUser bool
	Writes    []write
}

// backend is a raw key/value store for envelopes.
type backend interface {
	name() string
	get(ctx context.Context, key recordKey) ([]byte, error)
	put(ctx context.Context, key recordKey, payload []byte) error
	apply(ctx context.Context, b batch) error
}

// Store implements RoadmapStore over any backend.
type Store struct {
	backend backend
	logger  *zap.Logger
}

var _ RoadmapStore = (*Store)(nil)

func newStore(b backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: b, logger: logger.With(zap.String("store", b.name()))}
}

func (s *Store) observe(op string, start time.Time) {
	metrics.RecordStoreOpDuration(s.backend.name(), op, time.Since(start))
}

// load reads key into v. found is false for absent and malformed records.
func (s *Store) load(ctx context.Context, key recordKey, v any) (bool, error) {
	defer s.observe("get", time.Now())

	raw, err := s.backend.get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	ok, err := decode(raw, v)
	if err != nil {
		s.logger.Warn("Discarding unreadable record",
			zap.String("key", key.String()),
			zap.Error(err),
		)
		return false, nil
	}
	return ok, nil
}

func (s *Store) save(ctx context.Context, key recordKey, v any) error {
	defer s.observe("put", time.Now())

	payload, err := encode(v)
	if err != nil {
		return err
	}
	if err := s.backend.put(ctx, key, payload); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) commit(ctx context.Context, op string, b batch) error {
	defer s.observe(op, time.Now())

	if err := s.backend.apply(ctx, b); err != nil {
		return fmt.Errorf("%s for user %d: %w", op, b.UserID, err)
	}
	return nil
}

func (s *Store) GetRoadmap(ctx context.Context, userID int) (*model.Roadmap, error) {
	var rm model.Roadmap
	ok, err := s.load(ctx, recordKey{userID, nsRoadmap}, &rm)
	if err != nil || !ok {
		return nil, err
	}
	return &rm, nil
}

func (s *Store) SaveRoadmap(ctx context.Context, userID int, rm model.Roadmap) error {
	return s.save(ctx, recordKey{userID, nsRoadmap}, rm)
}

func (s *Store) GetProfile(ctx context.Context, userID int) (*model.UserProfile, error) {
	var profile model.UserProfile
	ok, err := s.load(ctx, recordKey{userID, nsProfile}, &profile)
	if err != nil || !ok {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID int, profile model.UserProfile) error {
	return s.save(ctx, recordKey{userID, nsProfile}, profile)
}

func (s *Store) GetModules(ctx context.Context, userID int) ([]model.Module, error) {
	var modules []model.Module
	ok, err := s.load(ctx, recordKey{userID, nsModules}, &modules)
	if err != nil || !ok {
		return nil, err
	}
	return modules, nil
}

func (s *Store) SaveModules(ctx context.Context, userID int, modules []model.Module) error {
	return s.save(ctx, recordKey{userID, nsModules}, modules)
}

func (s *Store) GetTracking(ctx context.Context, userID, moduleID int) ([]model.DayTracking, error) {
	var days []model.DayTracking
	ok, err := s.load(ctx, recordKey{userID, trackingNS(moduleID)}, &days)
	if err != nil || !ok {
		return nil, err
	}
	return days, nil
}

func (s *Store) SaveTracking(ctx context.Context, userID, moduleID int, days []model.DayTracking) error {
	return s.save(ctx, recordKey{userID, trackingNS(moduleID)}, days)
}

func (s *Store) GetContent(ctx context.Context, userID, moduleID int) ([]model.DailyContent, error) {
	var days []model.DailyContent
	ok, err := s.load(ctx, recordKey{userID, contentNS(moduleID)}, &days)
	if err != nil || !ok {
		return nil, err
	}
	return days, nil
}

func (s *Store) SaveContent(ctx context.Context, userID, moduleID int, days []model.DailyContent) error {
	return s.save(ctx, recordKey{userID, contentNS(moduleID)}, days)
}

func (s *Store) ReplacePlan(ctx context.Context, userID int, plan Plan) error {
	writes, err := encodeWrites(userID,
		pending{nsRoadmap, plan.Roadmap},
		pending{nsProfile, plan.Profile},
		pending{nsModules, plan.Modules},
		pending{trackingNS(1), plan.Tracking},
	)
	if err != nil {
		return err
	}
	return s.commit(ctx, "replace_plan", batch{UserID: userID, ResetUser: true, Writes: writes})
}

func (s *Store) CommitTransition(ctx context.Context, userID int, t Transition) error {
	records := []pending{{nsModules, t.Modules}}
	if t.UnlockedID > 0 {
		records = append(records, pending{trackingNS(t.UnlockedID), t.Tracking})
	}
	writes, err := encodeWrites(userID, records...)
	if err != nil {
		return err
	}
	return s.commit(ctx, "commit_transition", batch{UserID: userID, Writes: writes})
}

type pending struct {
	ns    string
	value any
}

func encodeWrites(userID int, records ...pending) ([]write, error) {
	writes := make([]write, 0, len(records))
	for _, r := range records {
		payload, err := encode(r.value)
		if err != nil {
			return nil, err
		}
		writes = append(writes, write{Key: recordKey{userID, r.ns}, Payload: payload})
	}
	return writes, nil
}

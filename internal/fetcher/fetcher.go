// Package fetcher implements the per-device pipeline of spec §4.3: connect,
// acquire the per-device mutex, reconcile the roster, ingest new events with
// identity resolution, dual-write the staged rows in one transaction, and
// best-effort backfill the device's serial. Grounded on the original's
// tasks.py:fetch_and_forward_for_device, rewritten around db.Pool/db.Querier
// instead of a SQLAlchemy session.
package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/deviceclient"
	"github.com/arc-self/sync-service/internal/identity"
	"github.com/arc-self/sync-service/internal/lock"
	"github.com/arc-self/sync-service/internal/model"
	"github.com/arc-self/sync-service/internal/runlog"
)

// Config carries the tunables spec §6 lists for the per-device pipeline.
type Config struct {
	ConnectTimeout             time.Duration
	LockTimeout                time.Duration
	LockStaleSeconds           time.Duration
	PruneMissingDeviceUsers    bool
	AutoCreateUserinfo         bool
	AllowInsertRawBadge        bool
	AutoCreateUsersFromBadges  bool
	UnmappedCSVDir             string
}

// Fetcher runs the pipeline for one device at a time; a single Fetcher is
// shared across the worker pool's goroutines (spec §4.5), since all shared
// state (pool, lock registry) is itself concurrency-safe.
type Fetcher struct {
	client   deviceclient.Client
	pool     db.Pool
	locks    *lock.Registry
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Fetcher.
func New(client deviceclient.Client, pool db.Pool, locks *lock.Registry, cfg Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, pool: pool, locks: locks, cfg: cfg, logger: logger}
}

// stagedEvent is one event queued for the dual-write transaction.
type stagedEvent struct {
	recordID     int64
	deviceUserID string
	timestamp    time.Time
	status       string
	badgeID      *int64
	replicaUser  string // empty => no RawEvent staged (unmapped + !AllowInsertRawBadge)
}

// Fetch runs the full per-device pipeline and returns the number of newly
// committed AttendanceEvents. It matches workerpool.FetchFunc's signature.
func (f *Fetcher) Fetch(ctx context.Context, device model.Device) (int, error) {
	connectCtx, cancel := context.WithTimeout(ctx, f.cfg.ConnectTimeout)
	session, err := f.client.Connect(connectCtx, device, f.cfg.ConnectTimeout)
	cancel()
	if err != nil {
		f.logger.Error("fetcher: connect failed", zap.String("device", device.Name), zap.Error(err))
		return 0, fmt.Errorf("connect: %w", err)
	}
	_ = session.Disable()
	defer func() {
		_ = session.Enable()
		_ = session.Disconnect()
	}()

	lockKey := device.Serial
	if lockKey == "" {
		lockKey = fmt.Sprintf("device-%d", device.ID)
	}

	degraded := false
	handle, lockErr := f.locks.Acquire(lockKey)
	if lockErr != nil {
		degraded = true
		f.logger.Warn("fetcher: lock contention, continuing in degraded mode",
			zap.String("device", device.Name), zap.Error(lockErr))
	} else {
		defer handle.Release()
	}

	serial, err := session.DeviceSerial()
	if err != nil || serial == "" {
		serial = deviceclient.UnknownSerial
	}

	q := db.New(f.pool)
	resolver := identity.NewResolver(q, f.logger)

	if !degraded {
		if err := f.reconcileRoster(ctx, q, session, serial); err != nil {
			f.logger.Error("fetcher: roster reconciliation failed", zap.String("device", device.Name), zap.Error(err))
		}
	}

	events, err := session.ListEvents(ctx)
	if err != nil {
		f.logger.Error("fetcher: list events failed", zap.String("device", device.Name), zap.Error(err))
		return 0, fmt.Errorf("list events: %w", err)
	}

	existingIDs, err := q.ListRecordIDsForDevice(ctx, device.ID)
	if err != nil {
		return 0, fmt.Errorf("list existing record ids: %w", err)
	}
	seen := make(map[int64]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		seen[id] = struct{}{}
	}

	badgeDeviceUserIDs, err := f.badgeToDeviceUserIDMap(ctx, q, serial)
	if err != nil {
		f.logger.Warn("fetcher: could not build badge->device_userid map", zap.Error(err))
		badgeDeviceUserIDs = map[string]string{}
	}

	var staged []stagedEvent
	var unmapped []string

	for _, ev := range events {
		if _, dup := seen[ev.RecordID]; dup {
			continue
		}
		if ev.DeviceUserID == "" {
			continue
		}

		se := stagedEvent{
			recordID:     ev.RecordID,
			deviceUserID: ev.DeviceUserID,
			timestamp:    ev.Timestamp,
			status:       ev.Status,
		}

		badge, ok, err := resolver.ResolveBadge(ctx, ev.DeviceUserID, serial)
		if err != nil {
			f.logger.Error("fetcher: identity resolution error", zap.String("device_userid", ev.DeviceUserID), zap.Error(err))
		}

		if ok {
			id := badge.ID
			se.badgeID = &id
			se.replicaUser = f.resolveReplicaUserID(ctx, q, badge, serial, badgeDeviceUserIDs)
		} else {
			if f.cfg.AutoCreateUsersFromBadges && device.BranchID != 0 {
				created, cerr := resolver.EnsureUserAndBadge(ctx, ev.DeviceUserID, device.BranchID, &device.ID, "")
				if cerr == nil {
					id := created.ID
					se.badgeID = &id
					se.replicaUser = f.resolveReplicaUserID(ctx, q, created, serial, badgeDeviceUserIDs)
				} else {
					f.logger.Warn("fetcher: auto-create user/badge failed, continuing",
						zap.String("device_userid", ev.DeviceUserID), zap.Error(cerr))
				}
			}
			if se.badgeID == nil {
				unmapped = append(unmapped, ev.DeviceUserID)
				if f.cfg.AllowInsertRawBadge {
					se.replicaUser = ev.DeviceUserID
				}
			}
		}

		if degraded {
			se.replicaUser = ""
		}

		staged = append(staged, se)
	}

	committed, err := f.commit(ctx, device, serial, staged)
	if err != nil {
		return 0, fmt.Errorf("dual write: %w", err)
	}

	if serial != deviceclient.UnknownSerial && device.Serial == "" && !deviceclient.IsIPv4Literal(serial) {
		if err := q.UpdateDeviceSerial(ctx, db.UpdateDeviceSerialParams{ID: device.ID, Serial: serial}); err != nil {
			f.logger.Warn("fetcher: serial backfill failed", zap.Int64("device_id", device.ID), zap.Error(err))
		}
	}

	if f.cfg.UnmappedCSVDir != "" {
		now := time.Now().UTC()
		for _, id := range unmapped {
			if err := runlog.AppendUnmappedCSV(f.cfg.UnmappedCSVDir, serial, id, now); err != nil {
				f.logger.Warn("fetcher: unmapped csv write failed", zap.Error(err))
			}
		}
	}

	return committed, nil
}

// resolveReplicaUserID implements spec §4.3 step 5c: the paired
// DeviceUserRef for this serial, else the badge->device_userid map entry,
// else an auto-created DeviceUserRef, else (when AllowInsertRawBadge) the
// badge's own badge number, else "". The event's raw device_userid is not
// an input here and is never returned.
func (f *Fetcher) resolveReplicaUserID(ctx context.Context, q db.Querier, badge model.Badge, serial string, badgeMap map[string]string) string {
	ref, err := q.GetDeviceUserRefByDeviceUseridAndSerial(ctx, db.GetDeviceUserRefByDeviceUseridAndSerialParams{
		DeviceUserID: badge.BadgeNumber,
		DeviceSerial: serial,
	})
	if err == nil {
		return ref.DeviceUserID
	}

	if id, ok := badgeMap[badge.BadgeNumber]; ok {
		return id
	}

	if f.cfg.AutoCreateUserinfo {
		created, err := q.UpsertDeviceUserRef(ctx, db.UpsertDeviceUserRefParams{
			DeviceUserID: badge.BadgeNumber,
			BadgeNumber:  badge.BadgeNumber,
			DeviceSerial: serial,
			Source:       "auto",
		})
		if err == nil {
			return created.DeviceUserID
		}
	}

	if f.cfg.AllowInsertRawBadge {
		return badge.BadgeNumber
	}

	return ""
}

// badgeToDeviceUserIDMap pre-builds badge_number -> device_userid for this
// serial, used by resolveReplicaUserID's second fallback.
func (f *Fetcher) badgeToDeviceUserIDMap(ctx context.Context, q db.Querier, serial string) (map[string]string, error) {
	ids, err := q.ListDeviceUserRefSerials(ctx, serial)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		ref, err := q.GetDeviceUserRefByDeviceUseridAndSerial(ctx, db.GetDeviceUserRefByDeviceUseridAndSerialParams{
			DeviceUserID: id,
			DeviceSerial: serial,
		})
		if err == nil {
			out[ref.BadgeNumber] = ref.DeviceUserID
		}
	}
	return out, nil
}

// reconcileRoster upserts a DeviceUserRef per roster entry and, if
// configured, prunes rows whose device_userid the device no longer reports
// (spec §4.3 step 4).
func (f *Fetcher) reconcileRoster(ctx context.Context, q db.Querier, session deviceclient.Session, serial string) error {
	users, err := session.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	seen := make([]string, 0, len(users))
	for _, u := range users {
		if u.DeviceUserID == "" {
			continue
		}
		seen = append(seen, u.DeviceUserID)

		if _, err := q.UpsertDeviceUserRef(ctx, db.UpsertDeviceUserRefParams{
			DeviceUserID: u.DeviceUserID,
			BadgeNumber:  u.DeviceUserID,
			Name:         u.Name,
			DeviceSerial: serial,
			Source:       "zk_device",
		}); err != nil {
			f.logger.Warn("fetcher: roster upsert failed", zap.String("device_userid", u.DeviceUserID), zap.Error(err))
		}
	}

	if f.cfg.PruneMissingDeviceUsers {
		if _, err := q.DeleteDeviceUserRefsNotIn(ctx, db.DeleteDeviceUserRefsNotInParams{
			DeviceSerial: serial,
			Keep:         seen,
		}); err != nil {
			return fmt.Errorf("prune device user refs: %w", err)
		}
	}

	return nil
}

// commit stages all events into a single transaction: an AttendanceEvent
// per staged row plus, unless replicaUser is empty (degraded mode or
// unmapped-without-raw-insert), a matching RawEvent. On any failure the
// whole transaction rolls back — spec §4.3 step 6's "no partial state".
func (f *Fetcher) commit(ctx context.Context, device model.Device, serial string, staged []stagedEvent) (int, error) {
	if len(staged) == 0 {
		return 0, nil
	}

	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := db.New(tx)

	committed := 0
	for _, se := range staged {
		userID := se.deviceUserID
		if se.badgeID != nil {
			userID = strconv.FormatInt(*se.badgeID, 10)
		}

		if _, err := qtx.InsertAttendanceEvent(ctx, db.InsertAttendanceEventParams{
			DeviceID:     device.ID,
			RecordID:     se.recordID,
			UserID:       userID,
			DeviceUserID: se.deviceUserID,
			BadgeID:      se.badgeID,
			Timestamp:    se.timestamp,
			Status:       se.status,
		}); err != nil {
			return 0, fmt.Errorf("insert attendance event (record_id=%d): %w", se.recordID, err)
		}

		if se.replicaUser != "" {
			if err := qtx.InsertRawEvent(ctx, db.InsertRawEventParams{
				DeviceUserID: se.replicaUser,
				Timestamp:    se.timestamp,
				Type:         se.status,
				DeviceSerial: serial,
			}); err != nil {
				return 0, fmt.Errorf("insert raw event (record_id=%d): %w", se.recordID, err)
			}
		}

		committed++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return committed, nil
}

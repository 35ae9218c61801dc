// Package identity resolves device-local user identifiers to canonical
// Badges and, when configured, provisions a minimal User/Badge pair for
// device-local ids nothing in the identity store yet recognizes. Ported
// from the Python original's access_helpers.py (get_badge_for_device_userid,
// upsert_access_userinfo, ensure_user_and_badge) onto the db.Querier
// interface.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/model"
)

// ErrNoBranch is returned by EnsureUserAndBadge when branchID is unset —
// users.branch_id is non-nullable, so a User cannot be created without one.
var ErrNoBranch = errors.New("identity: branch_id required to create user")

// Resolver implements spec §4.4's identity resolution and provisioning.
type Resolver struct {
	q      db.Querier
	logger *zap.Logger
}

// NewResolver constructs a Resolver over the given querier, which may be
// bound to a caller-managed transaction (db.Queries.WithTx) so resolution
// participates in the same atomic scope as the fetcher's dual-write.
func NewResolver(q db.Querier, logger *zap.Logger) *Resolver {
	return &Resolver{q: q, logger: logger}
}

// ResolveBadge implements the four-step lookup of spec §4.4: scoped roster
// entry, any-serial roster entry, direct badge lookup, else nil. Returns
// (model.Badge{}, false, nil) — not an error — when nothing resolves; that
// outcome is data, not failure (spec §7 IdentityUnresolvable).
func (r *Resolver) ResolveBadge(ctx context.Context, deviceUserID, deviceSerial string) (model.Badge, bool, error) {
	if deviceUserID == "" {
		return model.Badge{}, false, nil
	}

	ref, err := r.q.GetDeviceUserRefByDeviceUseridAndSerial(ctx, db.GetDeviceUserRefByDeviceUseridAndSerialParams{
		DeviceUserID: deviceUserID,
		DeviceSerial: deviceSerial,
	})
	if err == nil {
		if b, ok, err := r.badgeByNumber(ctx, ref.BadgeNumber); ok || err != nil {
			return b, ok, err
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		return model.Badge{}, false, fmt.Errorf("ResolveBadge: %w", err)
	}

	ref, err = r.q.GetDeviceUserRefByDeviceUserid(ctx, deviceUserID)
	if err == nil {
		if b, ok, err := r.badgeByNumber(ctx, ref.BadgeNumber); ok || err != nil {
			return b, ok, err
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		return model.Badge{}, false, fmt.Errorf("ResolveBadge: %w", err)
	}

	return r.badgeByNumber(ctx, deviceUserID)
}

func (r *Resolver) badgeByNumber(ctx context.Context, badgeNumber string) (model.Badge, bool, error) {
	if badgeNumber == "" {
		return model.Badge{}, false, nil
	}
	b, err := r.q.GetBadgeByNumber(ctx, badgeNumber)
	if err == nil {
		return b, true, nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return model.Badge{}, false, nil
	}
	return model.Badge{}, false, fmt.Errorf("GetBadgeByNumber: %w", err)
}

// UpsertDeviceUserRef is idempotent on (device_userid, device_serial): it
// updates badge_number/name only if they changed (spec §4.4). The
// underlying SQL's ON CONFLICT already absorbs the unique-constraint race
// the Python original handled by catching IntegrityError and re-reading.
func (r *Resolver) UpsertDeviceUserRef(ctx context.Context, deviceUserID, badgeNumber, name, deviceSerial, source string) (model.DeviceUserRef, error) {
	if deviceUserID == "" || badgeNumber == "" {
		return model.DeviceUserRef{}, fmt.Errorf("UpsertDeviceUserRef: device_userid and badge_number are required")
	}
	return r.q.UpsertDeviceUserRef(ctx, db.UpsertDeviceUserRefParams{
		DeviceUserID: deviceUserID,
		BadgeNumber:  strings.TrimSpace(badgeNumber),
		Name:         name,
		DeviceSerial: deviceSerial,
		Source:       source,
	})
}

// EnsureUserAndBadge creates a User (keyed by employee_code=badgeNumber)
// and Badge if absent, and links a UserDeviceMap when deviceID is
// supplied. Mirrors ensure_user_and_badge: requires a non-zero branchID,
// tolerates concurrent creation by falling back to the corresponding
// Create*'s own re-read, and never fails the caller's event on a
// UserDeviceMap error.
func (r *Resolver) EnsureUserAndBadge(ctx context.Context, badgeNumber string, branchID int64, deviceID *int64, defaultName string) (model.Badge, error) {
	badgeNumber = strings.TrimSpace(badgeNumber)
	if badgeNumber == "" {
		return model.Badge{}, fmt.Errorf("EnsureUserAndBadge: empty badge number")
	}

	if existing, err := r.q.GetBadgeByNumber(ctx, badgeNumber); err == nil {
		return existing, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return model.Badge{}, fmt.Errorf("EnsureUserAndBadge: %w", err)
	}

	if branchID == 0 {
		return model.Badge{}, ErrNoBranch
	}

	name := defaultName
	if name == "" {
		name = "IMPORTED"
	}

	user, err := r.q.GetUserByEmployeeCode(ctx, badgeNumber)
	if errors.Is(err, db.ErrNotFound) {
		user, err = r.q.CreateUser(ctx, db.CreateUserParams{
			BranchID:     branchID,
			FullName:     name,
			EmployeeCode: badgeNumber,
		})
	}
	if err != nil {
		return model.Badge{}, fmt.Errorf("EnsureUserAndBadge: resolve user: %w", err)
	}

	badge, err := r.q.CreateBadge(ctx, db.CreateBadgeParams{
		UserID:      user.ID,
		BadgeNumber: badgeNumber,
	})
	if err != nil {
		return model.Badge{}, fmt.Errorf("EnsureUserAndBadge: create badge: %w", err)
	}

	if deviceID != nil {
		mapped, err := r.q.UserDeviceMapExists(ctx, db.UserDeviceMapExistsParams{
			UserID:   user.ID,
			DeviceID: *deviceID,
		})
		if err != nil {
			r.logger.Warn("EnsureUserAndBadge: user_device_map existence check failed, attempting link anyway",
				zap.Int64("user_id", user.ID), zap.Int64("device_id", *deviceID), zap.Error(err))
		}
		if !mapped {
			if err := r.q.CreateUserDeviceMap(ctx, db.CreateUserDeviceMapParams{
				UserID:   user.ID,
				DeviceID: *deviceID,
			}); err != nil {
				r.logger.Warn("EnsureUserAndBadge: user_device_map link failed, continuing",
					zap.Int64("user_id", user.ID), zap.Int64("device_id", *deviceID), zap.Error(err))
			}
		}
	}

	return badge, nil
}

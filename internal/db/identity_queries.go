package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arc-self/sync-service/internal/model"
)

// ErrNotFound is returned by single-row lookups that match sql.ErrNoRows
// semantics; callers use errors.Is against this instead of pgx.ErrNoRows so
// the db package's pgx dependency doesn't leak into internal/identity.
var ErrNotFound = errors.New("db: no rows")

func wrapNoRows(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetDeviceUserRefByDeviceUseridAndSerialParams scopes the roster lookup to
// one device (identity resolution step 1).
type GetDeviceUserRefByDeviceUseridAndSerialParams struct {
	DeviceUserID string
	DeviceSerial string
}

func (q *Queries) GetDeviceUserRefByDeviceUseridAndSerial(ctx context.Context, arg GetDeviceUserRefByDeviceUseridAndSerialParams) (model.DeviceUserRef, error) {
	row := q.db.QueryRow(ctx, `
		SELECT device_userid, badge_number, name, device_serial, source
		FROM device_user_refs
		WHERE device_userid = $1 AND device_serial = $2`,
		arg.DeviceUserID, arg.DeviceSerial)

	var r model.DeviceUserRef
	var name *string
	if err := row.Scan(&r.DeviceUserID, &r.BadgeNumber, &name, &r.DeviceSerial, &r.Source); err != nil {
		return model.DeviceUserRef{}, wrapNoRows(err, "GetDeviceUserRefByDeviceUseridAndSerial")
	}
	if name != nil {
		r.Name = *name
	}
	return r, nil
}

// GetDeviceUserRefByDeviceUserid scopes the lookup to any serial (identity
// resolution step 2).
func (q *Queries) GetDeviceUserRefByDeviceUserid(ctx context.Context, deviceUserID string) (model.DeviceUserRef, error) {
	row := q.db.QueryRow(ctx, `
		SELECT device_userid, badge_number, name, device_serial, source
		FROM device_user_refs
		WHERE device_userid = $1
		ORDER BY device_serial
		LIMIT 1`, deviceUserID)

	var r model.DeviceUserRef
	var name *string
	if err := row.Scan(&r.DeviceUserID, &r.BadgeNumber, &name, &r.DeviceSerial, &r.Source); err != nil {
		return model.DeviceUserRef{}, wrapNoRows(err, "GetDeviceUserRefByDeviceUserid")
	}
	if name != nil {
		r.Name = *name
	}
	return r, nil
}

// GetBadgeByNumber is identity resolution step 3 (and the direct lookup
// used elsewhere whenever a badge number, not a device-local id, is known).
func (q *Queries) GetBadgeByNumber(ctx context.Context, badgeNumber string) (model.Badge, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id, badge_number, status FROM badges WHERE badge_number = $1`, badgeNumber)

	var b model.Badge
	if err := row.Scan(&b.ID, &b.UserID, &b.BadgeNumber, &b.Status); err != nil {
		return model.Badge{}, wrapNoRows(err, "GetBadgeByNumber")
	}
	return b, nil
}

// UpsertDeviceUserRefParams is the idempotent roster-reconciliation upsert
// keyed on (device_userid, device_serial).
type UpsertDeviceUserRefParams struct {
	DeviceUserID string
	BadgeNumber  string
	Name         string
	DeviceSerial string
	Source       string
}

// UpsertDeviceUserRef inserts a roster entry, or updates badge_number/name
// in place if they changed. ON CONFLICT makes the update-only-if-changed
// behavior of the original a single round trip instead of
// read-then-conditionally-write.
func (q *Queries) UpsertDeviceUserRef(ctx context.Context, arg UpsertDeviceUserRefParams) (model.DeviceUserRef, error) {
	var namePtr *string
	if arg.Name != "" {
		namePtr = &arg.Name
	}

	row := q.db.QueryRow(ctx, `
		INSERT INTO device_user_refs (device_userid, badge_number, name, device_serial, source)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_userid, device_serial) DO UPDATE
			SET badge_number = EXCLUDED.badge_number,
			    name = COALESCE(EXCLUDED.name, device_user_refs.name)
			WHERE device_user_refs.badge_number IS DISTINCT FROM EXCLUDED.badge_number
			   OR device_user_refs.name IS DISTINCT FROM EXCLUDED.name
		RETURNING device_userid, badge_number, name, device_serial, source`,
		arg.DeviceUserID, arg.BadgeNumber, namePtr, arg.DeviceSerial, arg.Source)

	var r model.DeviceUserRef
	var name *string
	if err := row.Scan(&r.DeviceUserID, &r.BadgeNumber, &name, &r.DeviceSerial, &r.Source); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The WHERE guard suppressed the update because nothing
			// changed; re-read to return the current row.
			return q.GetDeviceUserRefByDeviceUseridAndSerial(ctx, GetDeviceUserRefByDeviceUseridAndSerialParams{
				DeviceUserID: arg.DeviceUserID,
				DeviceSerial: arg.DeviceSerial,
			})
		}
		return model.DeviceUserRef{}, fmt.Errorf("UpsertDeviceUserRef: %w", err)
	}
	if name != nil {
		r.Name = *name
	}
	return r, nil
}

// ListDeviceUserRefSerials returns every device_userid currently on record
// for a serial, used to prune entries the device no longer reports.
func (q *Queries) ListDeviceUserRefSerials(ctx context.Context, deviceSerial string) ([]string, error) {
	rows, err := q.db.Query(ctx, `
		SELECT device_userid FROM device_user_refs WHERE device_serial = $1`, deviceSerial)
	if err != nil {
		return nil, fmt.Errorf("ListDeviceUserRefSerials: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListDeviceUserRefSerials scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteDeviceUserRefsNotInParams scopes a prune to one device serial.
type DeleteDeviceUserRefsNotInParams struct {
	DeviceSerial string
	Keep         []string
}

// DeleteDeviceUserRefsNotIn removes roster rows for DeviceSerial whose
// device_userid is absent from Keep (PRUNE_MISSING_DEVICE_USERS=true path).
func (q *Queries) DeleteDeviceUserRefsNotIn(ctx context.Context, arg DeleteDeviceUserRefsNotInParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM device_user_refs
		WHERE device_serial = $1 AND NOT (device_userid = ANY($2))`,
		arg.DeviceSerial, arg.Keep)
	if err != nil {
		return 0, fmt.Errorf("DeleteDeviceUserRefsNotIn: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetUserByEmployeeCode looks up the central User record created for a
// badge number (User.employee_code mirrors Badge.badge_number).
func (q *Queries) GetUserByEmployeeCode(ctx context.Context, employeeCode string) (model.User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, branch_id, full_name, employee_code FROM users WHERE employee_code = $1`, employeeCode)

	var u model.User
	if err := row.Scan(&u.ID, &u.BranchID, &u.FullName, &u.EmployeeCode); err != nil {
		return model.User{}, wrapNoRows(err, "GetUserByEmployeeCode")
	}
	return u, nil
}

// CreateUserParams is the minimal User insert made by ensure_user_and_badge.
type CreateUserParams struct {
	BranchID     int64
	FullName     string
	EmployeeCode string
}

// CreateUser inserts a User, tolerating a concurrent insert of the same
// employee_code by re-reading instead of surfacing the conflict.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (branch_id, full_name, employee_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_code) DO NOTHING
		RETURNING id, branch_id, full_name, employee_code`,
		arg.BranchID, arg.FullName, arg.EmployeeCode)

	var u model.User
	if err := row.Scan(&u.ID, &u.BranchID, &u.FullName, &u.EmployeeCode); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return q.GetUserByEmployeeCode(ctx, arg.EmployeeCode)
		}
		return model.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

// CreateBadgeParams is the minimal Badge insert made by ensure_user_and_badge.
type CreateBadgeParams struct {
	UserID      int64
	BadgeNumber string
}

// CreateBadge inserts a Badge, re-reading on a concurrent badge_number
// conflict rather than failing the whole identity-creation path.
func (q *Queries) CreateBadge(ctx context.Context, arg CreateBadgeParams) (model.Badge, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO badges (user_id, badge_number, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (badge_number) DO NOTHING
		RETURNING id, user_id, badge_number, status`,
		arg.UserID, arg.BadgeNumber)

	var b model.Badge
	if err := row.Scan(&b.ID, &b.UserID, &b.BadgeNumber, &b.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return q.GetBadgeByNumber(ctx, arg.BadgeNumber)
		}
		return model.Badge{}, fmt.Errorf("CreateBadge: %w", err)
	}
	return b, nil
}

// CreateUserDeviceMapParams links a user to the device it was first seen on.
type CreateUserDeviceMapParams struct {
	UserID   int64
	DeviceID int64
}

func (q *Queries) CreateUserDeviceMap(ctx context.Context, arg CreateUserDeviceMapParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO user_device_maps (user_id, device_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, device_id) DO NOTHING`,
		arg.UserID, arg.DeviceID)
	if err != nil {
		return fmt.Errorf("CreateUserDeviceMap: %w", err)
	}
	return nil
}

// UserDeviceMapExistsParams is the existence check guarding a redundant insert.
type UserDeviceMapExistsParams struct {
	UserID   int64
	DeviceID int64
}

func (q *Queries) UserDeviceMapExists(ctx context.Context, arg UserDeviceMapExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_device_maps WHERE user_id = $1 AND device_id = $2)`,
		arg.UserID, arg.DeviceID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("UserDeviceMapExists: %w", err)
	}
	return exists, nil
}

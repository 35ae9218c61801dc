package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arc-self/sync-service/internal/model"
)

// ListRecordIDsForDevice loads every record_id already ingested for a
// device, used by the fetcher to dedupe the device's event feed before
// staging anything (spec §4.3 step 5).
func (q *Queries) ListRecordIDsForDevice(ctx context.Context, deviceID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		SELECT record_id FROM attendance_events WHERE device_id = $1`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("ListRecordIDsForDevice: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListRecordIDsForDevice scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// InsertAttendanceEventParams stages one canonical event row. BadgeID is nil
// when identity resolution came up empty (spec §4.3 step 5e).
type InsertAttendanceEventParams struct {
	DeviceID     int64
	RecordID     int64
	UserID       string
	DeviceUserID string
	BadgeID      *int64
	Timestamp    time.Time
	Status       string
}

// InsertAttendanceEvent inserts one AttendanceEvent. The caller runs this
// inside a transaction shared with InsertRawEvent for dual-write atomicity;
// the (device_id, record_id) unique constraint enforces event uniqueness.
func (q *Queries) InsertAttendanceEvent(ctx context.Context, arg InsertAttendanceEventParams) (model.AttendanceEvent, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO attendance_events
			(device_id, record_id, user_id, device_userid, badge_id, timestamp, status, exported)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		RETURNING id, device_id, record_id, user_id, device_userid, badge_id, timestamp, status, exported, exported_at`,
		arg.DeviceID, arg.RecordID, arg.UserID, arg.DeviceUserID, arg.BadgeID, arg.Timestamp, arg.Status)

	var e model.AttendanceEvent
	if err := row.Scan(&e.ID, &e.DeviceID, &e.RecordID, &e.UserID, &e.DeviceUserID, &e.BadgeID,
		&e.Timestamp, &e.Status, &e.Exported, &e.ExportedAt); err != nil {
		return model.AttendanceEvent{}, fmt.Errorf("InsertAttendanceEvent: %w", err)
	}
	return e, nil
}

// InsertRawEventParams stages the replica-compatible row. Skipped entirely
// in degraded mode (lock not held) per spec §4.3 step 2.
type InsertRawEventParams struct {
	DeviceUserID string
	Timestamp    time.Time
	Type         string
	VerifyCode   string
	SensorID     string
	Memo         string
	WorkCode     string
	DeviceSerial string
}

func (q *Queries) InsertRawEvent(ctx context.Context, arg InsertRawEventParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO raw_events
			(device_userid, timestamp, type, verify_code, sensor_id, memo, workcode, device_serial)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		arg.DeviceUserID, arg.Timestamp, arg.Type, arg.VerifyCode, arg.SensorID, arg.Memo, arg.WorkCode, arg.DeviceSerial)
	if err != nil {
		return fmt.Errorf("InsertRawEvent: %w", err)
	}
	return nil
}

// MarkEventExported flips the exported flag once the exporter has confirmed
// (or inserted) the corresponding end-DB row.
func (q *Queries) MarkEventExported(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `
		UPDATE attendance_events SET exported = true, exported_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("MarkEventExported: %w", err)
	}
	return nil
}

// ListUnexportedEventsParams bounds the exporter's batch (spec §4.8).
type ListUnexportedEventsParams struct {
	Limit    int32
	Lookback *time.Time // nil disables the lookback filter
}

// ListUnexportedEvents selects up to Limit rows ordered by id, filtered to
// exported=false and optionally to timestamp >= the lookback cutoff.
func (q *Queries) ListUnexportedEvents(ctx context.Context, arg ListUnexportedEventsParams) ([]model.AttendanceEvent, error) {
	var rows pgx.Rows
	var err error
	if arg.Lookback != nil {
		rows, err = q.db.Query(ctx, `
			SELECT id, device_id, record_id, user_id, device_userid, badge_id, timestamp, status, exported, exported_at
			FROM attendance_events
			WHERE exported = false AND timestamp >= $1
			ORDER BY id
			LIMIT $2`, *arg.Lookback, arg.Limit)
	} else {
		rows, err = q.db.Query(ctx, `
			SELECT id, device_id, record_id, user_id, device_userid, badge_id, timestamp, status, exported, exported_at
			FROM attendance_events
			WHERE exported = false
			ORDER BY id
			LIMIT $1`, arg.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("ListUnexportedEvents: %w", err)
	}
	defer rows.Close()

	var out []model.AttendanceEvent
	for rows.Next() {
		var e model.AttendanceEvent
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.RecordID, &e.UserID, &e.DeviceUserID, &e.BadgeID,
			&e.Timestamp, &e.Status, &e.Exported, &e.ExportedAt); err != nil {
			return nil, fmt.Errorf("ListUnexportedEvents scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package db

import (
	"context"
	"fmt"

	"github.com/arc-self/sync-service/internal/model"
)

// GetBranch loads a Branch by id.
func (q *Queries) GetBranch(ctx context.Context, id int64) (model.Branch, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, ip_range FROM branches WHERE id = $1`, id)

	var b model.Branch
	if err := row.Scan(&b.ID, &b.Name, &b.IPRange); err != nil {
		return model.Branch{}, fmt.Errorf("GetBranch: %w", err)
	}
	return b, nil
}

// GetDevice loads a Device by id.
func (q *Queries) GetDevice(ctx context.Context, id int64) (model.Device, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, branch_id, name, ip, port, serial, last_seen
		FROM devices WHERE id = $1`, id)

	var d model.Device
	if err := row.Scan(&d.ID, &d.BranchID, &d.Name, &d.IP, &d.Port, &d.Serial, &d.LastSeen); err != nil {
		return model.Device{}, fmt.Errorf("GetDevice: %w", err)
	}
	return d, nil
}

// ListDevices returns every Device row, used by a poll-all run.
func (q *Queries) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, branch_id, name, ip, port, serial, last_seen FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListDevices: %w", err)
	}
	defer rows.Close()

	var out []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.BranchID, &d.Name, &d.IP, &d.Port, &d.Serial, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("ListDevices scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDevicesByBranch scopes ListDevices to one branch, used by a
// poll-branch run.
func (q *Queries) ListDevicesByBranch(ctx context.Context, branchID int64) ([]model.Device, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, branch_id, name, ip, port, serial, last_seen
		FROM devices WHERE branch_id = $1 ORDER BY id`, branchID)
	if err != nil {
		return nil, fmt.Errorf("ListDevicesByBranch: %w", err)
	}
	defer rows.Close()

	var out []model.Device
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.BranchID, &d.Name, &d.IP, &d.Port, &d.Serial, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("ListDevicesByBranch scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDeviceSerialParams backfills a device's permanent serial once
// resolved from the capability session (spec §4.3 step 7).
type UpdateDeviceSerialParams struct {
	ID     int64
	Serial string
}

// UpdateDeviceSerial persists the resolved serial on the device row. The
// caller is responsible for only calling this when the existing serial is
// empty and the new one is not an IPv4 literal — the invariant that serial,
// once assigned non-trivially, is never overwritten lives in the fetcher,
// not here.
func (q *Queries) UpdateDeviceSerial(ctx context.Context, arg UpdateDeviceSerialParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE devices SET serial = $2 WHERE id = $1`, arg.ID, arg.Serial)
	if err != nil {
		return fmt.Errorf("UpdateDeviceSerial: %w", err)
	}
	return nil
}

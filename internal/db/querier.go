package db

//go:generate mockgen -destination=dbtest/mock_querier.go -package=dbtest github.com/arc-self/sync-service/internal/db Querier

import (
	"context"

	"github.com/arc-self/sync-service/internal/model"
)

// Querier is the full set of statements the sync engine issues against the
// operational database. Fetcher, identity resolution, and the exporter all
// depend on this interface rather than *Queries directly, so tests can
// substitute a go.uber.org/mock fake.
type Querier interface {
	GetBranch(ctx context.Context, id int64) (model.Branch, error)
	GetDevice(ctx context.Context, id int64) (model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	ListDevicesByBranch(ctx context.Context, branchID int64) ([]model.Device, error)
	UpdateDeviceSerial(ctx context.Context, arg UpdateDeviceSerialParams) error

	GetDeviceUserRefByDeviceUseridAndSerial(ctx context.Context, arg GetDeviceUserRefByDeviceUseridAndSerialParams) (model.DeviceUserRef, error)
	GetDeviceUserRefByDeviceUserid(ctx context.Context, deviceUserID string) (model.DeviceUserRef, error)
	GetBadgeByNumber(ctx context.Context, badgeNumber string) (model.Badge, error)
	UpsertDeviceUserRef(ctx context.Context, arg UpsertDeviceUserRefParams) (model.DeviceUserRef, error)
	ListDeviceUserRefSerials(ctx context.Context, deviceSerial string) ([]string, error)
	DeleteDeviceUserRefsNotIn(ctx context.Context, arg DeleteDeviceUserRefsNotInParams) (int64, error)

	GetUserByEmployeeCode(ctx context.Context, employeeCode string) (model.User, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error)
	CreateBadge(ctx context.Context, arg CreateBadgeParams) (model.Badge, error)
	CreateUserDeviceMap(ctx context.Context, arg CreateUserDeviceMapParams) error
	UserDeviceMapExists(ctx context.Context, arg UserDeviceMapExistsParams) (bool, error)

	ListRecordIDsForDevice(ctx context.Context, deviceID int64) ([]int64, error)
	InsertAttendanceEvent(ctx context.Context, arg InsertAttendanceEventParams) (model.AttendanceEvent, error)
	InsertRawEvent(ctx context.Context, arg InsertRawEventParams) error
	MarkEventExported(ctx context.Context, id int64) error
	ListUnexportedEvents(ctx context.Context, arg ListUnexportedEventsParams) ([]model.AttendanceEvent, error)
}

var _ Querier = (*Queries)(nil)

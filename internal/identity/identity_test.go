package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/sync-service/internal/db"
	"github.com/arc-self/sync-service/internal/db/dbtest"
	"github.com/arc-self/sync-service/internal/identity"
	"github.com/arc-self/sync-service/internal/model"
)

func TestResolveBadge_ScopedRosterHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), db.GetDeviceUserRefByDeviceUseridAndSerialParams{
			DeviceUserID: "7",
			DeviceSerial: "ZK-001",
		}).
		Return(model.DeviceUserRef{DeviceUserID: "7", BadgeNumber: "B-100", DeviceSerial: "ZK-001"}, nil)
	q.EXPECT().
		GetBadgeByNumber(gomock.Any(), "B-100").
		Return(model.Badge{ID: 9, BadgeNumber: "B-100"}, nil)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, ok, err := r.ResolveBadge(context.Background(), "7", "ZK-001")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(9), badge.ID)
}

func TestResolveBadge_FallsThroughToDirectBadgeLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).
		Return(model.DeviceUserRef{}, db.ErrNotFound)
	q.EXPECT().
		GetDeviceUserRefByDeviceUserid(gomock.Any(), "B-200").
		Return(model.DeviceUserRef{}, db.ErrNotFound)
	q.EXPECT().
		GetBadgeByNumber(gomock.Any(), "B-200").
		Return(model.Badge{ID: 5, BadgeNumber: "B-200"}, nil)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, ok, err := r.ResolveBadge(context.Background(), "B-200", "ZK-001")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(5), badge.ID)
}

func TestResolveBadge_Unresolvable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).Return(model.DeviceUserRef{}, db.ErrNotFound)
	q.EXPECT().GetDeviceUserRefByDeviceUserid(gomock.Any(), gomock.Any()).Return(model.DeviceUserRef{}, db.ErrNotFound)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), gomock.Any()).Return(model.Badge{}, db.ErrNotFound)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, ok, err := r.ResolveBadge(context.Background(), "999", "ZK-001")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, badge)
}

func TestResolveBadge_EmptyDeviceUserID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl) // no expectations — must short-circuit
	r := identity.NewResolver(q, zaptest.NewLogger(t))

	_, ok, err := r.ResolveBadge(context.Background(), "", "ZK-001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureUserAndBadge_RequiresBranch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), "B-300").Return(model.Badge{}, db.ErrNotFound)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	_, err := r.EnsureUserAndBadge(context.Background(), "B-300", 0, nil, "")

	assert.ErrorIs(t, err, identity.ErrNoBranch)
}

func TestEnsureUserAndBadge_ReturnsExisting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), "B-400").Return(model.Badge{ID: 1, BadgeNumber: "B-400"}, nil)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, err := r.EnsureUserAndBadge(context.Background(), "B-400", 42, nil, "")

	require.NoError(t, err)
	assert.Equal(t, int64(1), badge.ID)
}

func TestEnsureUserAndBadge_CreatesUserAndBadgeThenLinksDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deviceID := int64(7)
	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), "B-500").Return(model.Badge{}, db.ErrNotFound)
	q.EXPECT().GetUserByEmployeeCode(gomock.Any(), "B-500").Return(model.User{}, db.ErrNotFound)
	q.EXPECT().CreateUser(gomock.Any(), db.CreateUserParams{BranchID: 42, FullName: "IMPORTED", EmployeeCode: "B-500"}).
		Return(model.User{ID: 11, BranchID: 42, EmployeeCode: "B-500"}, nil)
	q.EXPECT().CreateBadge(gomock.Any(), db.CreateBadgeParams{UserID: 11, BadgeNumber: "B-500"}).
		Return(model.Badge{ID: 22, UserID: 11, BadgeNumber: "B-500"}, nil)
	q.EXPECT().UserDeviceMapExists(gomock.Any(), db.UserDeviceMapExistsParams{UserID: 11, DeviceID: 7}).Return(false, nil)
	q.EXPECT().CreateUserDeviceMap(gomock.Any(), db.CreateUserDeviceMapParams{UserID: 11, DeviceID: 7}).Return(nil)

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, err := r.EnsureUserAndBadge(context.Background(), "B-500", 42, &deviceID, "")

	require.NoError(t, err)
	assert.Equal(t, int64(22), badge.ID)
}

func TestEnsureUserAndBadge_SkipsDeviceMapInsertWhenAlreadyLinked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deviceID := int64(7)
	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), "B-550").Return(model.Badge{}, db.ErrNotFound)
	q.EXPECT().GetUserByEmployeeCode(gomock.Any(), "B-550").Return(model.User{ID: 1}, nil)
	q.EXPECT().CreateBadge(gomock.Any(), gomock.Any()).Return(model.Badge{ID: 2}, nil)
	q.EXPECT().UserDeviceMapExists(gomock.Any(), db.UserDeviceMapExistsParams{UserID: 1, DeviceID: 7}).Return(true, nil)
	// CreateUserDeviceMap is deliberately not expected — gomock fails the
	// test if it is called when the mapping already exists.

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, err := r.EnsureUserAndBadge(context.Background(), "B-550", 42, &deviceID, "")

	require.NoError(t, err)
	assert.Equal(t, int64(2), badge.ID)
}

func TestEnsureUserAndBadge_DeviceMapFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deviceID := int64(7)
	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetBadgeByNumber(gomock.Any(), "B-600").Return(model.Badge{}, db.ErrNotFound)
	q.EXPECT().GetUserByEmployeeCode(gomock.Any(), "B-600").Return(model.User{ID: 1}, nil)
	q.EXPECT().CreateBadge(gomock.Any(), gomock.Any()).Return(model.Badge{ID: 2}, nil)
	q.EXPECT().UserDeviceMapExists(gomock.Any(), gomock.Any()).Return(false, nil)
	q.EXPECT().CreateUserDeviceMap(gomock.Any(), gomock.Any()).Return(errors.New("link failed"))

	r := identity.NewResolver(q, zaptest.NewLogger(t))
	badge, err := r.EnsureUserAndBadge(context.Background(), "B-600", 42, &deviceID, "")

	require.NoError(t, err)
	assert.Equal(t, int64(2), badge.ID)
}

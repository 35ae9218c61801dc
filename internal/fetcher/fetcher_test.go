package fetcher

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
	"github.com/arc-self/sync-service/internal/model"
)

// Fetch's connect -> lock -> commit pipeline is exercised against a live
// Postgres connection in integration tests; these tests cover the pure,
// db.Querier-shaped helpers that drive identity resolution and roster
// reconciliation without needing a real pool.

func TestResolveReplicaUserID_PrefersExistingDeviceUserRef(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), db.GetDeviceUserRefByDeviceUseridAndSerialParams{
			DeviceUserID: "B-100",
			DeviceSerial: "ZK-001",
		}).
		Return(model.DeviceUserRef{DeviceUserID: "7"}, nil)

	f := &Fetcher{logger: zaptest.NewLogger(t)}
	got := f.resolveReplicaUserID(context.Background(), q, model.Badge{BadgeNumber: "B-100"}, "ZK-001", nil)

	assert.Equal(t, "7", got)
}

func TestResolveReplicaUserID_FallsBackToBadgeMap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).
		Return(model.DeviceUserRef{}, db.ErrNotFound)

	f := &Fetcher{logger: zaptest.NewLogger(t)}
	got := f.resolveReplicaUserID(context.Background(), q, model.Badge{BadgeNumber: "B-100"}, "ZK-001",
		map[string]string{"B-100": "mapped-7"})

	assert.Equal(t, "mapped-7", got)
}

func TestResolveReplicaUserID_AutoCreatesWhenConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).
		Return(model.DeviceUserRef{}, db.ErrNotFound)
	q.EXPECT().
		UpsertDeviceUserRef(gomock.Any(), db.UpsertDeviceUserRefParams{
			DeviceUserID: "B-100",
			BadgeNumber:  "B-100",
			DeviceSerial: "ZK-001",
			Source:       "auto",
		}).
		Return(model.DeviceUserRef{DeviceUserID: "created-id"}, nil)

	f := &Fetcher{logger: zaptest.NewLogger(t), cfg: Config{AutoCreateUserinfo: true}}
	got := f.resolveReplicaUserID(context.Background(), q, model.Badge{BadgeNumber: "B-100"}, "ZK-001", nil)

	assert.Equal(t, "created-id", got)
}

func TestResolveReplicaUserID_FallsBackToRawBadgeWhenAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).Return(model.DeviceUserRef{}, db.ErrNotFound)

	f := &Fetcher{logger: zaptest.NewLogger(t), cfg: Config{AllowInsertRawBadge: true}}
	got := f.resolveReplicaUserID(context.Background(), q, model.Badge{BadgeNumber: "B-100"}, "ZK-001", nil)

	assert.Equal(t, "B-100", got)
}

func TestResolveReplicaUserID_EmptyWhenNothingMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), gomock.Any()).Return(model.DeviceUserRef{}, db.ErrNotFound)

	f := &Fetcher{logger: zaptest.NewLogger(t)}
	got := f.resolveReplicaUserID(context.Background(), q, model.Badge{BadgeNumber: "B-100"}, "ZK-001", nil)

	assert.Empty(t, got)
}

func TestBadgeToDeviceUserIDMap_BuildsBadgeKeyedMap(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().ListDeviceUserRefSerials(gomock.Any(), "ZK-001").Return([]string{"7", "8"}, nil)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), db.GetDeviceUserRefByDeviceUseridAndSerialParams{DeviceUserID: "7", DeviceSerial: "ZK-001"}).
		Return(model.DeviceUserRef{DeviceUserID: "7", BadgeNumber: "B-7"}, nil)
	q.EXPECT().
		GetDeviceUserRefByDeviceUseridAndSerial(gomock.Any(), db.GetDeviceUserRefByDeviceUseridAndSerialParams{DeviceUserID: "8", DeviceSerial: "ZK-001"}).
		Return(model.DeviceUserRef{}, db.ErrNotFound)

	f := &Fetcher{}
	out, err := f.badgeToDeviceUserIDMap(context.Background(), q, "ZK-001")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"B-7": "7"}, out)
}

func TestBadgeToDeviceUserIDMap_PropagatesListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().ListDeviceUserRefSerials(gomock.Any(), "ZK-001").Return(nil, errors.New("boom"))

	f := &Fetcher{}
	_, err := f.badgeToDeviceUserIDMap(context.Background(), q, "ZK-001")

	assert.Error(t, err)
}

type fakeSession struct {
	users []model.UserRecord
}

func (s *fakeSession) DeviceSerial() (string, error) { return "ZK-001", nil }
func (s *fakeSession) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	return s.users, nil
}
func (s *fakeSession) ListEvents(ctx context.Context) ([]model.EventRecord, error) { return nil, nil }
func (s *fakeSession) Disable() error                                             { return nil }
func (s *fakeSession) Enable() error                                              { return nil }
func (s *fakeSession) Disconnect() error                                          { return nil }

func TestReconcileRoster_UpsertsEachUserAndSkipsBlankIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().
		UpsertDeviceUserRef(gomock.Any(), db.UpsertDeviceUserRefParams{
			DeviceUserID: "1", BadgeNumber: "1", Name: "Alice", DeviceSerial: "ZK-001", Source: "zk_device",
		}).
		Return(model.DeviceUserRef{}, nil)

	f := &Fetcher{logger: zaptest.NewLogger(t)}
	session := &fakeSession{users: []model.UserRecord{
		{DeviceUserID: "1", Name: "Alice"},
		{DeviceUserID: "", Name: "should be skipped"},
	}}

	err := f.reconcileRoster(context.Background(), q, session, "ZK-001")
	require.NoError(t, err)
}

func TestReconcileRoster_PrunesWhenConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := dbtest.NewMockQuerier(ctrl)
	q.EXPECT().UpsertDeviceUserRef(gomock.Any(), gomock.Any()).Return(model.DeviceUserRef{}, nil)
	q.EXPECT().
		DeleteDeviceUserRefsNotIn(gomock.Any(), db.DeleteDeviceUserRefsNotInParams{
			DeviceSerial: "ZK-001",
			Keep:         []string{"1"},
		}).
		Return(int64(3), nil)

	f := &Fetcher{logger: zaptest.NewLogger(t), cfg: Config{PruneMissingDeviceUsers: true}}
	session := &fakeSession{users: []model.UserRecord{{DeviceUserID: "1"}}}

	err := f.reconcileRoster(context.Background(), q, session, "ZK-001")
	require.NoError(t, err)
}

package deviceclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/sync-service/internal/deviceclient"
	"github.com/arc-self/sync-service/internal/model"
)

func TestIsIPv4Literal(t *testing.T) {
	assert.True(t, deviceclient.IsIPv4Literal("192.168.1.10"))
	assert.False(t, deviceclient.IsIPv4Literal("ZK-00112233"))
	assert.False(t, deviceclient.IsIPv4Literal(""))
}

func TestSimulator_ConnectUnknownDeviceErrors(t *testing.T) {
	client := deviceclient.NewSimulator(nil)
	_, err := client.Connect(context.Background(), model.Device{Name: "missing"}, time.Second)
	assert.Error(t, err)
}

func TestSimulator_RoundTrip(t *testing.T) {
	fixture := deviceclient.Fixture{
		Serial: "ZK-00112233",
		Users: []model.UserRecord{
			{DeviceUserID: "1", Name: "Alice"},
		},
		Events: []model.EventRecord{
			{RecordID: 100, DeviceUserID: "1", Timestamp: time.Now(), Status: "in"},
		},
	}
	client := deviceclient.NewSimulator(map[string]deviceclient.Fixture{"lobby": fixture})

	session, err := client.Connect(context.Background(), model.Device{Name: "lobby"}, time.Second)
	require.NoError(t, err)
	defer session.Disconnect()

	require.NoError(t, session.Enable())

	serial, err := session.DeviceSerial()
	require.NoError(t, err)
	assert.Equal(t, "ZK-00112233", serial)

	users, err := session.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	events, err := session.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, session.Disable())
}

func TestSimulator_SerialFallsBackToDeviceName(t *testing.T) {
	fixture := deviceclient.Fixture{} // no serial configured
	client := deviceclient.NewSimulator(map[string]deviceclient.Fixture{"ZK-SERIAL-NAME": fixture})

	session, err := client.Connect(context.Background(), model.Device{Name: "ZK-SERIAL-NAME"}, time.Second)
	require.NoError(t, err)

	serial, err := session.DeviceSerial()
	require.NoError(t, err)
	assert.Equal(t, "ZK-SERIAL-NAME", serial)
}

func TestSimulator_SerialFallsBackToUnknownForIPv4Name(t *testing.T) {
	fixture := deviceclient.Fixture{}
	client := deviceclient.NewSimulator(map[string]deviceclient.Fixture{"10.0.0.5": fixture})

	session, err := client.Connect(context.Background(), model.Device{Name: "10.0.0.5"}, time.Second)
	require.NoError(t, err)

	serial, err := session.DeviceSerial()
	require.NoError(t, err)
	assert.Equal(t, deviceclient.UnknownSerial, serial)
}

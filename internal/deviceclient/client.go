// Package deviceclient defines the capability boundary toward a networked
// attendance terminal: connect, roster, events, enable/disable, disconnect.
// The real terminal-protocol implementation is out of scope for this
// service (spec §1 treats it as an opaque capability); this package owns
// only the interface and a simulator used by tests and local development.
package deviceclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/arc-self/sync-service/internal/model"
)

// Session is one connected conversation with a device. Each method call
// maps directly onto spec §4.2's capability contract.
type Session interface {
	// DeviceSerial resolves the device's stable identifier, falling back to
	// the device name when the device offers nothing better, and finally to
	// the sentinel UnknownSerial.
	DeviceSerial() (string, error)
	ListUsers(ctx context.Context) ([]model.UserRecord, error)
	ListEvents(ctx context.Context) ([]model.EventRecord, error)
	// Disable and Enable are best-effort; callers ignore their errors on
	// cleanup paths per spec §4.2.
	Disable() error
	Enable() error
	Disconnect() error
}

// UnknownSerial is returned by DeviceSerial when neither the device nor its
// configured name yield a usable identifier.
const UnknownSerial = "UNKNOWN"

// Client connects to a Device and returns a live Session. ConnectTimeout
// bounds the connect call; implementations must respect ctx cancellation.
type Client interface {
	Connect(ctx context.Context, d model.Device, connectTimeout time.Duration) (Session, error)
}

// IsIPv4Literal reports whether s parses as a dotted-quad IPv4 address —
// used by the fetcher to decide whether a resolved serial is eligible for
// backfill onto the Device row (spec §4.3 step 7) and by DeviceSerial
// fallback logic (spec §4.2).
func IsIPv4Literal(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil
}

// simulatorClient is an in-memory Client used by tests and local runs
// without real hardware. Each device name maps to a fixed roster/event
// fixture passed to NewSimulator.
type simulatorClient struct {
	fixtures map[string]Fixture
}

// Fixture is one simulated device's canned roster and event feed.
type Fixture struct {
	Serial string
	Users  []model.UserRecord
	Events []model.EventRecord
}

// NewSimulator builds a Client backed by fixtures keyed by device name,
// grounded on the same "simulator" device-type branch the capability
// adapters in the broader ecosystem expose for local testing.
func NewSimulator(fixtures map[string]Fixture) Client {
	return &simulatorClient{fixtures: fixtures}
}

func (s *simulatorClient) Connect(ctx context.Context, d model.Device, connectTimeout time.Duration) (Session, error) {
	fx, ok := s.fixtures[d.Name]
	if !ok {
		return nil, fmt.Errorf("deviceclient: no simulator fixture registered for device %q", d.Name)
	}
	return &simulatorSession{device: d, fixture: fx}, nil
}

type simulatorSession struct {
	device  model.Device
	fixture Fixture
}

func (s *simulatorSession) DeviceSerial() (string, error) {
	if s.fixture.Serial != "" {
		return s.fixture.Serial, nil
	}
	if s.device.Name != "" && !IsIPv4Literal(s.device.Name) {
		return s.device.Name, nil
	}
	return UnknownSerial, nil
}

func (s *simulatorSession) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	return s.fixture.Users, nil
}

func (s *simulatorSession) ListEvents(ctx context.Context) ([]model.EventRecord, error) {
	return s.fixture.Events, nil
}

func (s *simulatorSession) Disable() error    { return nil }
func (s *simulatorSession) Enable() error     { return nil }
func (s *simulatorSession) Disconnect() error { return nil }

// Package model holds the shared domain types for the attendance sync
// engine: the identity graph (branches, devices, users, badges), the
// event log, and the wire shapes a device capability adapter produces.
package model

import "time"

// Branch groups devices and users under one physical site.
type Branch struct {
	ID      int64
	Name    string
	IPRange string
}

// Device is a networked attendance terminal. Serial is its permanent
// identifier once assigned non-trivially — callers must never
// overwrite a non-empty, non-IPv4 serial (spec.md §3).
type Device struct {
	ID       int64
	BranchID int64
	Name     string
	IP       string
	Port     int
	Serial   string
	LastSeen *time.Time
}

// User is a central person record, independent of any device.
type User struct {
	ID           int64
	BranchID     int64
	FullName     string
	EmployeeCode string
}

// Badge is the globally unique person identifier owned by the
// identity store. BadgeNumber is never reassigned to a different user.
type Badge struct {
	ID          int64
	UserID      int64
	BadgeNumber string
	Status      string
}

// UserDeviceMap links a User to a Device they are enrolled on.
type UserDeviceMap struct {
	UserID   int64
	DeviceID int64
}

// DeviceUserRef is a roster entry: it binds a device-local user id on
// a specific device serial to a badge number valid on that device.
type DeviceUserRef struct {
	DeviceUserID string
	BadgeNumber  string
	Name         string
	DeviceSerial string
	Source       string
}

// AttendanceEvent is the canonical, per-device-monotonic attendance
// record. (DeviceID, RecordID) is globally unique.
type AttendanceEvent struct {
	ID           int64
	DeviceID     int64
	RecordID     int64
	UserID       string
	DeviceUserID string
	BadgeID      *int64
	Timestamp    time.Time
	Status       string
	Exported     bool
	ExportedAt   *time.Time
}

// RawEvent is the replica-store's legacy-compatible shape, carrying
// the device serial verbatim.
type RawEvent struct {
	DeviceUserID string
	Timestamp    time.Time
	Type         string
	VerifyCode   string
	SensorID     string
	Memo         string
	WorkCode     string
	DeviceSerial string
}

// UserRecord is what a device capability's ListUsers returns for one
// roster entry. Missing identifiers (empty DeviceUserID) must be
// skipped by the caller (spec.md §4.2).
type UserRecord struct {
	DeviceUserID string
	Name         string
	Card         string
	UID          string
}

// EventRecord is what a device capability's ListEvents returns for one
// attendance punch. RecordID is the device-assigned monotonic id
// ("uid" in the device protocol); it is stable across sessions for the
// same device (spec.md §4.2's ordering guarantee).
type EventRecord struct {
	RecordID     int64
	DeviceUserID string
	Timestamp    time.Time
	Status       string
}

// DeviceResult is one device's outcome from a single poll run, as
// collected by the worker pool (spec.md §4.5).
type DeviceResult struct {
	DeviceID  int64
	Name      string
	Fetched   int
	Error     string
	Timestamp time.Time
}

// RunSummary is the JSON footer written at the end of a poll run
// (spec.md §4.5/§6).
type RunSummary struct {
	Start          time.Time        `json:"start"`
	End            time.Time        `json:"end"`
	DevicesPolled  int              `json:"devices_polled"`
	NewEvents      int              `json:"new_events"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	Exceptions     []DeviceResult   `json:"exceptions"`
	Logfile        string           `json:"logfile"`
}

// ExportResult summarizes one run of the exporter (spec.md §4.8).
type ExportResult struct {
	Exported         int `json:"exported"`
	SkippedExisting  int `json:"skipped_existing"`
	SkippedEmptyUser int `json:"skipped_empty_user"`
	Errors           int `json:"errors"`
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Runtime holds every non-secret tunable of spec §6, populated from
// environment variables with the documented defaults.
type Runtime struct {
	PollInterval               time.Duration
	MaxPollWorkers             int
	SchedulerLogDir            string
	AccessLockDir              string
	AccessLockTimeout          time.Duration
	AccessLockStaleSeconds     time.Duration
	ExportBatchSize            int32
	ExportLookbackDays         int
	ExportAfterPoll            bool
	EndTargetTable             string
	AutoCreateUserinfo         bool
	AllowInsertRawBadge        bool
	AutoCreateUsersFromBadges  bool
	PruneMissingDeviceUsers    bool
	JobTTLSeconds              time.Duration
	ExportLogOffsetMinutes     int
	ConnectTimeout             time.Duration
}

// LoadRuntime reads Runtime from the process environment, applying spec
// §6's defaults for any key that is unset or unparsable.
func LoadRuntime() Runtime {
	return Runtime{
		PollInterval:              envDuration("POLL_INTERVAL", 3600*time.Second),
		MaxPollWorkers:            envInt("MAX_POLL_WORKERS", 10),
		SchedulerLogDir:           envString("SCHEDULER_LOG_DIR", "logs"),
		AccessLockDir:             envString("ACCESS_LOCK_DIR", "logs/access_locks"),
		AccessLockTimeout:         envDuration("ACCESS_LOCK_TIMEOUT", 15*time.Second),
		AccessLockStaleSeconds:    envDuration("ACCESS_LOCK_STALE_SECONDS", 60*time.Second),
		ExportBatchSize:           int32(envInt("EXPORT_BATCH_SIZE", 1500)),
		ExportLookbackDays:        envInt("EXPORT_LOOKBACK_DAYS", 10),
		ExportAfterPoll:           envBool("EXPORT_AFTER_POLL", true),
		EndTargetTable:            envString("END_TARGET_TABLE", "att_raw_data_old"),
		AutoCreateUserinfo:        envBool("AUTO_CREATE_USERINFO", false),
		AllowInsertRawBadge:       envBool("ALLOW_INSERT_RAW_BADGE", true),
		AutoCreateUsersFromBadges: envBool("AUTO_CREATE_USERS_FROM_BADGES", false),
		PruneMissingDeviceUsers:   envBool("PRUNE_MISSING_DEVICE_USERS", false),
		JobTTLSeconds:             envDuration("JOB_TTL_SECONDS", 3600*time.Second),
		ExportLogOffsetMinutes:    envInt("EXPORT_LOG_OFFSET_MINUTES", 0),
		ConnectTimeout:            envDuration("DEVICE_CONNECT_TIMEOUT", 10*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

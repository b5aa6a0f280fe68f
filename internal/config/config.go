package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// ExpandPolicy decides how an English submission fans out across markets.
type ExpandPolicy string

const (
	// ExpandSingle stores English books once, under us.
	ExpandSingle ExpandPolicy = "single"
	// ExpandAllEnglish stores one record per English market sharing a group id.
	ExpandAllEnglish ExpandPolicy = "all-english"
)

// RemovalPolicy decides whether whole groups can be hard-deleted.
type RemovalPolicy string

const (
	RemoveArchive RemovalPolicy = "archive"
	RemoveDelete  RemovalPolicy = "delete"
)

const (
	MinSaveDelay     = 100 * time.Millisecond
	MaxSaveDelay     = 500 * time.Millisecond
	DefaultQuotaSize = 5 << 20
)

type Config struct {
	Port         string
	DBDSN        string
	LogFile      string
	Expand       ExpandPolicy
	Removal      RemovalPolicy
	SaveDelay    time.Duration
	StorageQuota int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "bookfolio.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./bookfolio.log"
	}

	expand := ExpandPolicy(os.Getenv("EXPAND_POLICY"))
	if expand != ExpandSingle && expand != ExpandAllEnglish {
		expand = ExpandAllEnglish
	}
	removal := RemovalPolicy(os.Getenv("REMOVAL_POLICY"))
	if removal != RemoveArchive && removal != RemoveDelete {
		removal = RemoveDelete
	}

	delay := MaxSaveDelay
	if ms, err := strconv.Atoi(os.Getenv("SAVE_DELAY_MS")); err == nil {
		delay = ClampSaveDelay(time.Duration(ms) * time.Millisecond)
	}
	quota := DefaultQuotaSize
	if n, err := strconv.Atoi(os.Getenv("STORAGE_QUOTA_BYTES")); err == nil && n > 0 {
		quota = n
	}

	cfg := Config{
		Port:         port,
		DBDSN:        dsn,
		LogFile:      logFile,
		Expand:       expand,
		Removal:      removal,
		SaveDelay:    delay,
		StorageQuota: quota,
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s EXPAND_POLICY=%s REMOVAL_POLICY=%s SAVE_DELAY=%s STORAGE_QUOTA_BYTES=%d",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.Expand, cfg.Removal, cfg.SaveDelay, cfg.StorageQuota)
	return cfg
}

// ClampSaveDelay keeps the debounce window inside 100–500ms.
func ClampSaveDelay(d time.Duration) time.Duration {
	if d < MinSaveDelay {
		return MinSaveDelay
	}
	if d > MaxSaveDelay {
		return MaxSaveDelay
	}
	return d
}

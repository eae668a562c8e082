package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"ssal/internal/configuration/properties"
)

const (
	EngineMemory  = "memory"
	EngineWAL     = "wal"
	EngineBolt    = "bolt"
	EngineLevelDB = "leveldb"
)

// Open builds the store for the configured engine.
func Open(cfg *properties.StoreConfigProperties) (*Store, error) {
	engine, err := openEngine(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("store opened",
		"engine", engineName(cfg.Engine),
		"dir", cfg.Dir,
		"lock_timeout", cfg.LockTimeoutDuration(),
	)
	return New(engine, cfg.LockTimeoutDuration()), nil
}

func openEngine(cfg *properties.StoreConfigProperties) (Engine, error) {
	switch engineName(cfg.Engine) {
	case EngineMemory:
		return NewMemoryEngine(), nil
	case EngineWAL:
		return OpenWALEngine(filepath.Join(cfg.Dir, "wal"), cfg.Wal.NoSync, cfg.Wal.SnapCount)
	case EngineBolt:
		return OpenBoltEngine(filepath.Join(cfg.Dir, "ssal.db"), cfg.Bolt.OpenTimeoutDuration())
	case EngineLevelDB:
		return OpenLevelDBEngine(filepath.Join(cfg.Dir, "leveldb"), cfg.LevelDB.NoSync)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

func engineName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EngineMemory
	}
	return name
}

package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type LevelDBEngine struct {
	once   sync.Once
	db     *leveldb.DB
	noSync bool
}

func OpenLevelDBEngine(dir string, noSync bool) (*LevelDBEngine, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return &LevelDBEngine{db: db, noSync: noSync}, nil
}

func (l *LevelDBEngine) Get(key string) ([]byte, bool, error) {
	value, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (l *LevelDBEngine) Write(entries []Entry) error {
	batch := new(leveldb.Batch)
	for _, e := range entries {
		batch.Put([]byte(e.Key), e.Value)
	}
	return l.db.Write(batch, &opt.WriteOptions{Sync: !l.noSync})
}

func (l *LevelDBEngine) Close() error {
	var err error
	l.once.Do(func() {
		err = l.db.Close()
	})
	return err
}

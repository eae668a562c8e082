package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"ssal/internal/metrics"

	"github.com/tidwall/wal"
)

const (
	RecordTypeBatch    byte = 1
	RecordTypeSnapshot byte = 2
)

// WALEngine keeps the full state in memory and appends every batch to a
// write-ahead log. Replaying the log on open rebuilds the state. Once more
// than snapCount records accumulate, the state is written as a snapshot
// record and everything before it is truncated.
type WALEngine struct {
	mu sync.Mutex

	log       *wal.Log
	data      map[string][]byte
	nextIdx   uint64
	snapIdx   uint64
	snapCount uint64
}

func OpenWALEngine(dir string, noSync bool, snapCount uint64) (*WALEngine, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	opts := *wal.DefaultOptions
	opts.NoSync = noSync
	log, err := wal.Open(dir, &opts)
	if err != nil {
		return nil, fmt.Errorf("wal.Open: %w", err)
	}

	e := &WALEngine{
		log:       log,
		data:      make(map[string][]byte),
		nextIdx:   1,
		snapCount: snapCount,
	}

	if err := e.replay(); err != nil {
		_ = log.Close()
		return nil, err
	}

	return e, nil
}

func (e *WALEngine) replay() error {
	empty, err := e.log.IsEmpty()
	if err != nil {
		return fmt.Errorf("wal.IsEmpty: %w", err)
	}
	if empty {
		return nil
	}

	first, err := e.log.FirstIndex()
	if err != nil {
		return fmt.Errorf("wal.FirstIndex: %w", err)
	}
	last, err := e.log.LastIndex()
	if err != nil {
		return fmt.Errorf("wal.LastIndex: %w", err)
	}

	var batches int
	for idx := first; idx <= last; idx++ {
		data, err := e.log.Read(idx)
		if err != nil {
			return fmt.Errorf("wal.Read(%d): %w", idx, err)
		}

		recType, payload, err := unmarshalRecord(data)
		if err != nil {
			return fmt.Errorf("record %d: %w", idx, err)
		}

		var entries []Entry
		if err := json.Unmarshal(payload, &entries); err != nil {
			return fmt.Errorf("record %d: %w: %v", idx, ErrCorruptRecord, err)
		}

		switch recType {
		case RecordTypeSnapshot:
			e.data = make(map[string][]byte, len(entries))
			e.snapIdx = idx
		case RecordTypeBatch:
			batches++
		default:
			return fmt.Errorf("record %d: %w: type %d", idx, ErrCorruptRecord, recType)
		}
		for _, entry := range entries {
			e.data[entry.Key] = entry.Value
		}

		e.nextIdx = idx + 1
	}

	slog.Info("replayed WAL",
		"wal_first", first,
		"wal_last", last,
		"batches", batches,
		"snap_index", e.snapIdx,
		"keys", len(e.data),
	)

	return nil
}

func (e *WALEngine) Get(key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (e *WALEngine) Write(entries []Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if err := e.appendRecordLocked(RecordTypeBatch, entries); err != nil {
		return err
	}
	metrics.WALWritesTotal.Inc()
	metrics.WALWriteDuration.Observe(time.Since(start).Seconds())

	for _, entry := range entries {
		e.data[entry.Key] = append([]byte(nil), entry.Value...)
	}

	if e.snapCount > 0 && e.nextIdx-e.firstIdxLocked() > e.snapCount {
		if err := e.compactLocked(); err != nil {
			// The batch itself is durable; a failed compaction only delays truncation.
			slog.Warn("WAL compaction failed", "error", err)
		}
	}

	return nil
}

func (e *WALEngine) firstIdxLocked() uint64 {
	if e.snapIdx > 0 {
		return e.snapIdx
	}
	return 1
}

func (e *WALEngine) compactLocked() error {
	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snapshot := make([]Entry, 0, len(keys))
	for _, k := range keys {
		snapshot = append(snapshot, Entry{Key: k, Value: e.data[k]})
	}

	snapIdx := e.nextIdx
	if err := e.appendRecordLocked(RecordTypeSnapshot, snapshot); err != nil {
		return fmt.Errorf("append snapshot record: %w", err)
	}
	if err := e.log.TruncateFront(snapIdx); err != nil {
		return fmt.Errorf("wal.TruncateFront: %w", err)
	}
	e.snapIdx = snapIdx

	metrics.WALCompactionsTotal.Inc()
	slog.Debug("compacted WAL", "snap_index", snapIdx, "keys", len(snapshot))
	return nil
}

func (e *WALEngine) appendRecordLocked(recType byte, entries []Entry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := e.log.Write(e.nextIdx, marshalRecord(recType, payload)); err != nil {
		return fmt.Errorf("wal.Write(%d): %w", e.nextIdx, err)
	}
	e.nextIdx++
	return nil
}

func (e *WALEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.log == nil {
		return nil
	}
	err := e.log.Close()
	e.log = nil
	return err
}

func marshalRecord(recType byte, payload []byte) []byte {
	buf := make([]byte, 1+binary.MaxVarintLen64+len(payload))
	buf[0] = recType
	n := binary.PutUvarint(buf[1:], uint64(len(payload)))
	copy(buf[1+n:], payload)
	return buf[:1+n+len(payload)]
}

func unmarshalRecord(data []byte) (byte, []byte, error) {
	if len(data) < 2 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	recType := data[0]
	length, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	start := 1 + n
	end := start + int(length)
	if end > len(data) {
		return 0, nil, io.ErrUnexpectedEOF
	}
	return recType, data[start:end], nil
}

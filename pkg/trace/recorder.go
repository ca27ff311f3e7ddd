package trace

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"

	"github.com/vatine/minimips/pkg/cpu"
	"github.com/vatine/minimips/pkg/report"
)

var (
	ErrClosed   = errors.New("trace: recorder is closed")
	ErrNotFound = errors.New("trace: no summary recorded")
)

const (
	cyclePrefix  = 'c'
	summaryKey   = "s"
	flushRecords = 1024
)

// Record is the stored form of one cycle.
type Record struct {
	Cycle     uint64            `json:"cycle"`
	PC        uint32            `json:"pc"`
	Word      uint32            `json:"word"`
	Op        string            `json:"op"`
	Branch    *cpu.BranchReport `json:"branch,omitempty"`
	WriteBack *cpu.WriteBack    `json:"writeBack,omitempty"`
	Jumped    bool              `json:"jumped,omitempty"`
	NextPC    uint32            `json:"nextPC"`
}

// Summary is the stored form of a cpu.Termination.
type Summary struct {
	State       string                    `json:"state"`
	PC          uint32                    `json:"pc"`
	Cycles      uint64                    `json:"cycles"`
	Registers   [cpu.RegisterCount]uint32 `json:"registers"`
	Fingerprint string                    `json:"fingerprint"`
}

// Recorder persists a run into a pebble database, one record per
// cycle plus a summary when the machine stops. Writes are batched;
// the summary commit is synced.
type Recorder struct {
	db     *pebble.DB
	batch  *pebble.Batch
	mu     sync.Mutex
	closed bool
	err    error
}

func OpenRecorder(path string) (*Recorder, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trace store %s: %w", path, err)
	}
	return &Recorder{db: db, batch: db.NewBatch()}, nil
}

func cycleKey(n uint64) []byte {
	key := make([]byte, 9)
	key[0] = cyclePrefix
	binary.BigEndian.PutUint64(key[1:], n)
	return key
}

func (r *Recorder) Cycle(c cpu.CycleReport) {
	rec := Record{
		Cycle:     c.Cycle,
		PC:        c.PC,
		Word:      c.Instruction.Word,
		Op:        c.Instruction.Mnemonic(),
		Branch:    c.Branch,
		WriteBack: c.WriteBack,
		Jumped:    c.Jumped,
		NextPC:    c.NextPC,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	r.setErr(r.put(cycleKey(c.Cycle), rec))
	if r.err == nil && r.batch.Count() >= flushRecords {
		r.setErr(r.flush(pebble.NoSync))
	}
}

func (r *Recorder) Terminated(t cpu.Termination) {
	s := Summary{
		State:       t.State.String(),
		PC:          t.PC,
		Cycles:      t.Cycles,
		Registers:   t.Registers,
		Fingerprint: report.Fingerprint(t),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	r.setErr(r.put([]byte(summaryKey), s))
	if r.err == nil {
		r.setErr(r.flush(pebble.Sync))
	}
}

func (r *Recorder) put(key []byte, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.batch.Set(key, value, nil)
}

// flush commits the pending batch and starts a new one. Callers hold
// r.mu.
func (r *Recorder) flush(opts *pebble.WriteOptions) error {
	if r.batch.Empty() {
		return nil
	}
	err := r.batch.Commit(opts)
	if cerr := r.batch.Close(); err == nil {
		err = cerr
	}
	r.batch = r.db.NewBatch()
	return err
}

func (r *Recorder) setErr(err error) {
	if err != nil && r.err == nil {
		logrus.WithError(err).Error("trace recorder failed, further cycles dropped")
		r.err = err
	}
}

// Err returns the first error seen while recording, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Records returns every stored cycle, in cycle order.
func (r *Recorder) Records() ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if err := r.flush(pebble.NoSync); err != nil {
		return nil, err
	}

	iter, err := r.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{cyclePrefix},
		UpperBound: []byte{cyclePrefix + 1},
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var rv []Record
	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode cycle record: %w", err)
		}
		rv = append(rv, rec)
	}
	return rv, iter.Error()
}

// Summary returns the stored termination summary.
func (r *Recorder) Summary() (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Summary{}, ErrClosed
	}
	if err := r.flush(pebble.NoSync); err != nil {
		return Summary{}, err
	}

	value, closer, err := r.db.Get([]byte(summaryKey))
	if err == pebble.ErrNotFound {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	defer closer.Close()

	var s Summary
	if err := json.Unmarshal(value, &s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

// Close commits anything pending and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.batch.Commit(pebble.Sync)
	if cerr := r.batch.Close(); err == nil {
		err = cerr
	}
	if cerr := r.db.Close(); err == nil {
		err = cerr
	}
	return err
}

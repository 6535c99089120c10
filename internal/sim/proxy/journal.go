package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/protocol"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

// JournalEntry is one line of the journal.
type JournalEntry struct {
	At     time.Time       `json:"at"`
	Seq    uint64          `json:"seq"`
	Action json.RawMessage `json:"action"`
}

// Journal appends every action as a JSON line to zstd-compressed files,
// one per simulation hour. Nothing reads the journal back; it is a
// diagnostics trail.
type Journal struct {
	baseDir string
	prefix  string
	clock   timectrl.SimClock
	log     logging.Logger

	mu      sync.Mutex
	seq     uint64
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewJournal writes under baseDir with files named <prefix>-<hour>.jsonl.zst.
func NewJournal(baseDir, prefix string, clock timectrl.SimClock, log logging.Logger) *Journal {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	if prefix == "" {
		prefix = "actions"
	}
	return &Journal{baseDir: baseDir, prefix: prefix, clock: clock, log: log}
}

// SendAction journals a, logging failures.
func (j *Journal) SendAction(a actions.Action) {
	if err := j.Write(a); err != nil {
		j.log.Error(context.Background(), "journal write failed",
			logging.String("action", a.Kind()),
			logging.Err(err),
		)
	}
}

// Write appends one action.
func (j *Journal) Write(a actions.Action) error {
	body, err := protocol.EncodeAction(a)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.clock.Now().UTC()
	hour := now.Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	j.seq++
	line, err := json.Marshal(JournalEntry{At: now, Seq: j.seq, Action: body})
	if err != nil {
		return err
	}
	if _, err := j.w.Write(line); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

// Close flushes and closes the current file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := j.closeLocked()
	j.curHour = ""
	return err
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	f, err := os.OpenFile(j.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	return err
}

func (j *Journal) pathForHour(hour string) string {
	return filepath.Join(j.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, hour))
}

// ReadJournal decodes every entry of one journal file. It exists for
// tooling and tests.
func ReadJournal(path string) ([]JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []JournalEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e JournalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, fmt.Errorf("journal line %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

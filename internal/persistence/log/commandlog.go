// Package log appends every applied command to zstd-compressed JSONL
// files, rotated hourly. The command log plus a snapshot is enough to
// audit or replay the full registry history.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Record is one JSONL line in the command log.
type Record struct {
	Time     uint64          `json:"time"`
	Session  string          `json:"session"`
	Sender   string          `json:"sender"`
	MsgType  string          `json:"msg_type"`
	Accepted bool            `json:"accepted"`
	Code     string          `json:"code,omitempty"`
	TokenID  string          `json:"token_id,omitempty"`
	Raw      json.RawMessage `json:"raw"`
}

// CommandLog writes Records to hourly-rotated .jsonl.zst files under
// dataDir/commands. Safe for concurrent use.
type CommandLog struct {
	dir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewCommandLog(dataDir string) *CommandLog {
	return &CommandLog{dir: filepath.Join(dataDir, "commands")}
}

func (l *CommandLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *CommandLog) Write(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != l.curHour {
		if err := l.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *CommandLog) rotateLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.w = bufio.NewWriterSize(enc, 128*1024)
	l.curHour = hour
	return nil
}

func (l *CommandLog) closeLocked() error {
	var err1 error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		err1 = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	return err1
}

func (l *CommandLog) pathForHour(hour string) string {
	return filepath.Join(l.dir, fmt.Sprintf("commands-%s.jsonl.zst", hour))
}

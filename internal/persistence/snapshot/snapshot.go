// Package snapshot persists full registry state as a zstd-compressed gob
// stream with a small JSON header line, so the header can be inspected
// without decoding the body.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"xyzgrid.io/internal/registry"
)

const formatVersion = 1

// Header is the uncompressed-readable-after-zstd first line of a snapshot.
type Header struct {
	Version   int    `json:"version"`
	Contract  string `json:"contract"`
	TakenAt   int64  `json:"taken_at_unix_nanos"`
	NumTokens int    `json:"num_tokens"`
}

// Write stores st at path, creating parent directories as needed.
func Write(path string, st registry.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hdr := Header{
		Version:   formatVersion,
		Contract:  st.Info.Name,
		TakenAt:   time.Now().UnixNano(),
		NumTokens: len(st.Tokens),
	}
	hb, err := json.Marshal(hdr)
	if err != nil {
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(st); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// Read loads a snapshot written by Write.
func Read(path string) (registry.State, Header, error) {
	var st registry.State
	var hdr Header

	f, err := os.Open(path)
	if err != nil {
		return st, hdr, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return st, hdr, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return st, hdr, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return st, hdr, fmt.Errorf("parse header: %w", err)
	}
	if hdr.Version != formatVersion {
		return st, hdr, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	if err := gob.NewDecoder(br).Decode(&st); err != nil {
		return st, hdr, fmt.Errorf("decode body: %w", err)
	}
	return st, hdr, nil
}

// Latest returns the newest snapshot file in dir by name, or "" if none.
// Filenames embed a sortable timestamp, so lexical order is time order.
func Latest(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// Filename builds a sortable snapshot filename for the given time.
func Filename(t time.Time) string {
	return t.UTC().Format("20060102T150405") + ".snap.zst"
}

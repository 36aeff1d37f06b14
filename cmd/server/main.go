package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"xyzgrid.io/internal/genesis"
	"xyzgrid.io/internal/persistence/indexdb"
	persistlog "xyzgrid.io/internal/persistence/log"
	"xyzgrid.io/internal/persistence/snapshot"
	"xyzgrid.io/internal/protocol"
	"xyzgrid.io/internal/registry"
	"xyzgrid.io/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		genesisPath = flag.String("genesis", "./configs/genesis.yaml", "genesis config path")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		snapPath     = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest   = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
		snapInterval = flag.Duration("snapshot_every", 10*time.Minute, "periodic snapshot interval (0 to disable)")
		migratePath  = flag.String("migrate", "", "path to a migration record (json) applied after load")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	gen, err := genesis.Load(*genesisPath)
	if err != nil {
		logger.Fatalf("load genesis: %v", err)
	}

	snapDir := filepath.Join(*dataDir, "snapshots")

	// Build the registry: fresh from genesis, or resumed from a snapshot.
	snapToLoad := strings.TrimSpace(*snapPath)
	if snapToLoad == "" && *loadLatest {
		snapToLoad, err = snapshot.Latest(snapDir)
		if err != nil {
			logger.Fatalf("scan snapshots: %v", err)
		}
	}

	var reg *registry.Registry
	if snapToLoad != "" {
		st, hdr, err := snapshot.Read(snapToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		// The snapshot's key is current; UPDATE_CAPTCHA_PUBLIC_KEY may have
		// replaced the genesis key since.
		verifier, err := registry.VerifierFor(st.CaptchaPublicKey)
		if err != nil {
			logger.Fatalf("captcha public key: %v", err)
		}
		reg, err = registry.FromState(st, verifier)
		if err != nil {
			logger.Fatalf("restore snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tokens=%d", filepath.Base(snapToLoad), hdr.NumTokens)
	} else {
		verifier, err := registry.VerifierFor(gen.CaptchaPublicKey)
		if err != nil {
			logger.Fatalf("captcha public key: %v", err)
		}
		reg, err = registry.New(gen.Owner, gen.Config, gen.CaptchaPublicKey, verifier, gen.Contract)
		if err != nil {
			logger.Fatalf("registry: %v", err)
		}
	}

	if p := strings.TrimSpace(*migratePath); p != "" {
		if err := applyMigration(reg, p); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		_, version := reg.Config()
		logger.Printf("migration applied from %s (config version %d)", filepath.Base(p), version)
	}

	// Read-model index (does not affect command semantics).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"), logger)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	cmdLog := persistlog.NewCommandLog(*dataDir)
	defer cmdLog.Close()

	sink := newAuditSink(cmdLog, idx, logger)

	hooks := ws.Hooks{OnCommand: func(rec ws.CommandRecord) {
		// The hook runs with the registry lock held, so reading the token
		// here is consistent with the command just applied. The disk writes
		// happen on the sink goroutine, off the apply path.
		var row *indexdb.TokenRow
		if idx != nil && rec.Accepted && rec.TokenID != "" {
			if tok, err := reg.XyzNftInfo(rec.TokenID); err == nil {
				r := tokenRow(tok)
				row = &r
			}
		}
		sink.enqueue(rec, row)
	}}

	wsSrv := ws.NewServer(reg, logger, hooks)

	ctx, cancel := signalContext()
	defer cancel()

	writeSnapshot := func() {
		path := filepath.Join(snapDir, snapshot.Filename(time.Now()))
		if err := snapshot.Write(path, wsSrv.Snapshot()); err != nil {
			logger.Printf("snapshot write: %v", err)
			return
		}
		logger.Printf("snapshot written: %s", filepath.Base(path))
	}

	if *snapInterval > 0 {
		go func() {
			t := time.NewTicker(*snapInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					writeSnapshot()
				}
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// Final snapshot on clean shutdown, then drain the audit sink before
	// the deferred closes tear down its backends.
	writeSnapshot()
	sink.Close()
}

// applyMigration decodes a version-upgrade record and replaces the config.
func applyMigration(reg *registry.Registry, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m protocol.MigrateMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return reg.Migrate(m.Config)
}

type auditEntry struct {
	rec ws.CommandRecord
	row *indexdb.TokenRow
}

// auditSink moves command-log and index writes off the apply path. Writes
// are best-effort: a full backlog drops (and logs) rather than stalling
// command application.
type auditSink struct {
	cmdLog *persistlog.CommandLog
	idx    *indexdb.SQLiteIndex
	logger *log.Logger

	ch chan auditEntry
	wg sync.WaitGroup
}

func newAuditSink(cmdLog *persistlog.CommandLog, idx *indexdb.SQLiteIndex, logger *log.Logger) *auditSink {
	s := &auditSink{
		cmdLog: cmdLog,
		idx:    idx,
		logger: logger,
		ch:     make(chan auditEntry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for e := range s.ch {
			s.write(e)
		}
	}()
	return s
}

func (s *auditSink) write(e auditEntry) {
	if err := s.cmdLog.Write(persistlog.Record{
		Time:     e.rec.Time,
		Session:  e.rec.Session,
		Sender:   e.rec.Sender,
		MsgType:  e.rec.MsgType,
		Accepted: e.rec.Accepted,
		Code:     e.rec.Code,
		TokenID:  e.rec.TokenID,
		Raw:      e.rec.Raw,
	}); err != nil {
		s.logger.Printf("command log: %v", err)
	}
	if s.idx == nil {
		return
	}
	s.idx.RecordCommand(indexdb.CommandRow{
		Time:     int64(e.rec.Time),
		Session:  e.rec.Session,
		Sender:   e.rec.Sender,
		MsgType:  e.rec.MsgType,
		Accepted: e.rec.Accepted,
		Code:     e.rec.Code,
		RawJSON:  string(e.rec.Raw),
	})
	if e.row != nil {
		s.idx.UpsertToken(*e.row)
	}
}

func (s *auditSink) enqueue(rec ws.CommandRecord, row *indexdb.TokenRow) {
	select {
	case s.ch <- auditEntry{rec: rec, row: row}:
	default:
		s.logger.Printf("audit backlog full; dropped %s from %s", rec.MsgType, rec.Sender)
	}
}

func (s *auditSink) Close() {
	close(s.ch)
	s.wg.Wait()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func tokenRow(tok registry.Token) indexdb.TokenRow {
	row := indexdb.TokenRow{
		TokenID: tok.ID,
		Owner:   tok.Owner,
		X:       tok.Extension.Coordinates.X,
		Y:       tok.Extension.Coordinates.Y,
		Z:       tok.Extension.Coordinates.Z,
		Arrival: int64(tok.Extension.Arrival),
	}
	if prev := tok.Extension.PrevCoordinates; prev != nil {
		row.InTransit = true
		row.PrevX = sql.NullInt64{Int64: prev.X, Valid: true}
		row.PrevY = sql.NullInt64{Int64: prev.Y, Valid: true}
		row.PrevZ = sql.NullInt64{Int64: prev.Z, Valid: true}
	}
	return row
}

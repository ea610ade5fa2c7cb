package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"campussecurity/internal/access"
	"campussecurity/internal/faceclient"
	"campussecurity/internal/ids"
	"campussecurity/internal/kvstore"
	"campussecurity/internal/logger"
	"campussecurity/internal/recognition"
	"campussecurity/internal/records"
	"campussecurity/internal/session"
	"campussecurity/internal/store"
)

// App is everything one CLI invocation talks to. Records live in memory for
// the life of the process; only the session blob survives between runs.
type App struct {
	Records     *records.Service
	Sessions    *session.Manager
	Recognition *recognition.Service
	Log         zerolog.Logger

	db *sql.DB
}

// Slot is the single session this CLI keeps.
func (a *App) Slot() *session.Session {
	return a.Sessions.Slot(session.StorageKey)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// DefaultStorePath is ~/.campusctl/session.db, or a file in the working
// directory when there is no home.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "campusctl.db"
	}
	return filepath.Join(home, ".campusctl", "session.db")
}

// OpenApp opens the sqlite session store at opts.Store and wires the record
// service, session manager and recognition pipeline over it.
func OpenApp(ctx context.Context, opts *RootOptions) (*App, error) {
	path := opts.Store
	if path == "" {
		path = DefaultStorePath()
	}
	db, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	kv := kvstore.NewSQL(db, kvstore.SQLite)
	if err := kv.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New("dev", level, "campusctl", os.Stderr)

	app, err := newApp(kv, opts, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	app.db = db
	return app, nil
}

func newApp(kv kvstore.Store, opts *RootOptions, log zerolog.Logger) (*App, error) {
	seed, err := records.DefaultSeed()
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	gen := ids.NewTimeSeeded()
	if opts.Seed != 0 {
		gen = ids.NewGenerator(opts.Seed)
	}
	repos := records.NewMemory(seed, gen)

	recOpts := []records.Option{records.WithLogger(log)}
	sessOpts := []session.Option{session.WithLogger(log)}
	if opts.NoDelay {
		recOpts = append(recOpts, records.WithLatency(records.Latency{}))
		sessOpts = append(sessOpts, session.WithLoginDelay(0))
	}
	recs := records.NewService(repos, gen, recOpts...)

	var remote recognition.Remote
	if opts.FaceURL != "" {
		remote = faceclient.New(opts.FaceURL, false)
	}

	return &App{
		Records:  recs,
		Sessions: session.NewManager(repos.Users, kv, sessOpts...),
		Recognition: recognition.NewService(remote, recs.Students,
			access.NewService(recs.Events, access.DefaultDedupWindow),
			recognition.WithLogger(log)),
		Log: log,
	}, nil
}

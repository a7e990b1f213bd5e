package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // register file source
)

type Options struct {
	// Steps moves that many migrations; 0 applies every pending one.
	Steps   int
	Verbose bool
}

// Status is the schema version left behind by a run.
type Status struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Runner is the part of *migrate.Migrate used here.
type Runner interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
}

func Migrate(dbURL string, source string, opts Options, log *zap.Logger) (Status, error) {
	log.Info("Running node store migration", zap.String("source", source), zap.Int("steps", opts.Steps))

	m, err := migrate.New(source, dbURL)
	if err != nil {
		return Status{}, fmt.Errorf("prepare migration: %w", err)
	}
	defer m.Close()

	m.Log = NewLogger(log, opts.Verbose)

	return Run(m, opts.Steps, log)
}

// Run applies steps on runner and reports the resulting version.
func Run(runner Runner, steps int, log *zap.Logger) (Status, error) {
	var err error
	if steps == 0 {
		err = runner.Up()
	} else {
		err = runner.Steps(steps)
	}

	status := Status{Changed: true}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("Node store migration: no change needed")
		status.Changed = false
	} else if err != nil {
		log.Error("Node store migration failed", zap.Error(err))
		return Status{}, err
	}

	version, dirty, err := runner.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("read migration version: %w", err)
	}
	status.Version, status.Dirty = version, dirty
	log.Info("Node store schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	return status, nil
}

// Logger forwards golang-migrate output to zap.
type Logger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof("Migration: "+format, v...)
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func NewLogger(logger *zap.Logger, verbose bool) *Logger {
	return &Logger{
		logger:  logger,
		verbose: verbose,
	}
}

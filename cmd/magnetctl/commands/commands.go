package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/conventions"
	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/remote"
	"github.com/slok/magnetctl/internal/remote/anirss"
	"github.com/slok/magnetctl/internal/remote/fake"
	"github.com/slok/magnetctl/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// RemoteTypeAniRSS is the ani-rss remote.
	RemoteTypeAniRSS = "anirss"
	// RemoteTypeFake is the in-memory fake remote.
	RemoteTypeFake = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DBPath     string
	Remote     string
	URL        string
	Token      string
	RateLimit  float64
	FakeStep   int

	// Global instances.
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     log.Logger
	Interrupts *collect.InterruptHook
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{
		Interrupts: collect.NewInterruptHook(),
	}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := conventions.JournalPath(filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir))
	app.Flag("db-path", "Path to the SQLite task journal file.").Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("remote", "Selects the remote that runs the magnet tasks.").Default(RemoteTypeAniRSS).EnumVar(&c.Remote, RemoteTypeAniRSS, RemoteTypeFake)
	app.Flag("url", "Remote server URL.").Default("http://localhost:7789").StringVar(&c.URL)
	app.Flag("token", "Remote server API token.").StringVar(&c.Token)
	app.Flag("rate-limit", "Maximum requests per second sent to the remote (0 is unlimited).").Default("0").Float64Var(&c.RateLimit)
	app.Flag("fake-step", "Progress advanced on every status request by the fake remote.").Default("25").IntVar(&c.FakeStep)

	return c
}

// newRemote returns the remote client selected by the global flags.
func (r RootCommand) newRemote() (remote.Client, error) {
	switch r.Remote {
	case RemoteTypeFake:
		return fake.NewClient(fake.ClientConfig{Step: r.FakeStep, Logger: r.Logger})
	case RemoteTypeAniRSS:
		return anirss.NewClient(anirss.ClientConfig{
			BaseURL:   r.URL,
			Token:     r.Token,
			RateLimit: r.RateLimit,
			Logger:    r.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown remote %q", r.Remote)
	}
}

// newJournal opens the SQLite task journal.
func (r RootCommand) newJournal(ctx context.Context) (*sqlite.Repository, error) {
	return sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.DBPath,
		Logger: r.Logger,
	})
}

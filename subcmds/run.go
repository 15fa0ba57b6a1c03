// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/ctxutil"
	"github.com/bvk/ladderbot/daemonize"
	"github.com/bvk/ladderbot/httputil"
	"github.com/bvk/ladderbot/server"
	"github.com/bvk/ladderbot/subcmds/cmdutil"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"github.com/visvasity/sglog"
)

const daemonizeEnvKey = "LADDERBOT_DAEMONIZE"

type Run struct {
	cmdutil.ServerFlags

	background bool

	restart         bool
	shutdownTimeout time.Duration

	noPprof  bool
	noResume bool

	logStderr bool
	debugLog  bool

	configPath  string
	secretsPath string
	dataDir     string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.ServerFlags.SetFlags(fset)
	fset.BoolVar(&c.background, "background", false, "runs the daemon in background")
	fset.BoolVar(&c.restart, "restart", false, "when true, kills any old instance")
	fset.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 30*time.Second, "max timeout for shutdown when restarting")
	fset.BoolVar(&c.noPprof, "no-pprof", false, "when true net/http/pprof handler is not registered")
	fset.BoolVar(&c.noResume, "no-resume", false, "when true pairs running at the last shutdown aren't resumed automatically")
	fset.BoolVar(&c.logStderr, "log-stderr", false, "when true, logs are written to stderr instead of the log files")
	fset.BoolVar(&c.debugLog, "debug", false, "when true, debug messages are logged")
	fset.StringVar(&c.configPath, "config", "", "path to a yaml file with the pair configurations to start")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Runs ladderbot in foreground or background"
}

func (c *Run) Description() string {
	return `

Command "run" starts the ladderbot service. Pairs that were running at the
last shutdown are resumed automatically with their saved configuration. Pairs
listed in the configuration file are started with the configuration from the
file.

Environment variables are loaded from .env files in the current directory and
the data directory before anything else. Variables already set in the
environment take precedence.

SECRETS FILE

Exchange API keys and other credentials are read from a secrets file in JSON
format. An example secrets file is given below:

    {
        "coinex":{
            "key":"111111111",
            "secret":"2222222222"
        },
        "api-key":"a-random-string-of-at-least-32-bytes"
    }

Every secret can also be set with a LADDERBOT_* environment variable, which
overrides the file.

CONFIGURATION FILE

The configuration file lists the pairs to trade in YAML format:

    pairs:
      - pair: BTCUSDT
        mode: market-making
        level-distance: 0.2
        level-count: 3
        order-size: 0.001
        max-rebalance-distance: 1
      - pair: CETUSDT
        mode: volume
        variant: BALANCED
        min-size: 100
        max-size: 500

`
}

func (c *Run) run(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := cmdutil.DataDir(c.dataDir)
	if err != nil {
		return err
	}

	if err := config.LoadEnv(".env", filepath.Join(dataDir, ".env")); err != nil {
		return err
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := server.SecretsFromFile(c.secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		secrets = new(server.Secrets)
	}
	secrets.ApplyEnv()
	if err := secrets.Check(); err != nil {
		return fmt.Errorf("invalid secrets: %w", err)
	}

	var pairs []*config.Config
	if len(c.configPath) != 0 {
		cs, err := config.LoadFile(c.configPath)
		if err != nil {
			return fmt.Errorf("could not load configuration file %q: %w", c.configPath, err)
		}
		pairs = cs
	}

	addr, err := c.ServerFlags.Address()
	if err != nil {
		return err
	}

	// Health checker for the background process initialization. We need to
	// verify that responding http server is really our child and not an older
	// instance.
	check := func(ctx context.Context, child *os.Process) (bool, error) {
		client := http.Client{Timeout: time.Second}
		resp, err := client.Get(fmt.Sprintf("http://%s/pid", addr.String()))
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return true, fmt.Errorf("http status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		if pid := string(data); pid != fmt.Sprintf("%d", child.Pid) {
			return c.restart, fmt.Errorf("is another instance already running? pid mismatch: want %d got %s", child.Pid, pid)
		}
		return false, nil
	}

	if c.background {
		if err := daemonize.Daemonize(ctx, daemonizeEnvKey, check); err != nil {
			return err
		}
	}

	level := new(slog.LevelVar)
	if c.debugLog {
		level.Set(slog.LevelDebug)
	}
	if c.logStderr {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	} else {
		logDir := filepath.Join(dataDir, "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("could not create log directory %q: %w", logDir, err)
		}
		backend := sglog.NewBackend(&sglog.Options{
			LogDirs:              []string{logDir},
			LogFileReuseDuration: time.Hour,
		})
		defer backend.Close()
		if !c.debugLog {
			backend.SetLevel(slog.LevelInfo)
		}
		slog.SetDefault(slog.New(backend.Handler()))
	}
	slog.Info("starting ladderbot", "data-dir", dataDir, "secrets-file", c.secretsPath, "config", c.configPath)

	lockPath := filepath.Join(dataDir, "ladderbot.lock")
	flock, err := lockfile.New(lockPath)
	if err != nil {
		return fmt.Errorf("could not create lock file %q: %w", lockPath, err)
	}
	if err := flock.TryLock(); err != nil {
		if !c.restart {
			return fmt.Errorf("could not get lock on file %q: %w", lockPath, err)
		}
		owner, err := flock.GetOwner()
		if err != nil {
			return fmt.Errorf("could not get current owner of the lock file: %w", err)
		}
		if err := owner.Signal(os.Interrupt); err == nil {
			slog.Info("waiting for the previous instance to shutdown", "pid", owner.Pid)
			if err := ctxutil.RetryTimeout(ctx, time.Second, c.shutdownTimeout, flock.TryLock); err != nil {
				if err := owner.Signal(os.Kill); err != nil {
					return fmt.Errorf("could not kill current owner of the lock file: %w", err)
				}
				ctxutil.Sleep(ctx, time.Millisecond)
			}
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on file %q after killing previous instance: %w", lockPath, err)
		}
	}
	defer flock.Unlock()

	// Start HTTP server.
	s, err := httputil.New(nil /* opts */)
	if err != nil {
		return err
	}
	defer s.Close()

	tcpServer, err := s.StartTCP(ctx, addr)
	if err != nil {
		return fmt.Errorf("could not start http server on %s: %w", addr, err)
	}
	defer s.Stop(tcpServer)

	if !c.noPprof {
		s.AddHandler("/debug/pprof/heap", pprof.Handler("heap"))
		s.AddHandler("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		s.AddHandler("/debug/pprof/allocs", pprof.Handler("allocs"))
		s.AddHandler("/debug/pprof/block", pprof.Handler("block"))
		s.AddHandler("/debug/pprof/mutex", pprof.Handler("mutex"))
	}

	// Open the database.
	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	bopts.Logger = nil
	bdb, err := badger.Open(bopts)
	if err != nil {
		return fmt.Errorf("could not open the database: %w", err)
	}
	defer bdb.Close()
	db := kvbadger.New(bdb, cmdutil.IsGoodKey)

	sopts := &server.Options{
		NoResume: c.noResume,
		Pairs:    pairs,
	}
	bot, err := server.New(ctx, secrets, db, sopts)
	if err != nil {
		return err
	}
	defer bot.Close()

	s.AddHandler("/db/", bot.Authorized(http.StripPrefix("/db", kvhttp.Handler(db))))
	defer s.RemoveHandler("/db/")

	apis := bot.HandlerMap()
	for k, v := range apis {
		s.AddHandler(k, v)
	}
	defer func() {
		for k := range apis {
			s.RemoveHandler(k)
		}
	}()

	if err := bot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Stop(context.Background()); err != nil {
			slog.Error("could not stop all pairs (ignored)", "err", err)
		}
	}()

	slog.Info("started ladderbot server", "addr", addr)
	s.AddHandler("/pid", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, fmt.Sprintf("%d", os.Getpid()))
	}))

	<-ctx.Done()
	slog.Info("ladderbot server is shutting down")
	return nil
}

package db

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/rds-go/cli/options"
	"github.com/nspcc-dev/rds-go/cli/value"
	"github.com/nspcc-dev/rds-go/pkg/config"
	"github.com/nspcc-dev/rds-go/pkg/lazyload"
	"github.com/nspcc-dev/rds-go/pkg/storage"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// NewCommands returns lazy-load database commands.
func NewCommands() []cli.Command {
	putFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "name to store a single value under (not used for workspace images)",
		},
	}, options.Common...)
	getFlags := append([]cli.Flag{options.JSON}, options.Common...)
	return []cli.Command{{
		Name:  "db",
		Usage: "Lazy-load database operations",
		Subcommands: []cli.Command{
			{
				Name:      "put",
				Usage:     "Store a value or all bindings of a workspace image",
				UsageText: "rds db put [--name <name>] [--config-file <file>] <file>",
				Action:    put,
				Flags:     putFlags,
			},
			{
				Name:      "get",
				Usage:     "Print a value stored in the database",
				UsageText: "rds db get [--json] [--config-file <file>] <name>",
				Action:    get,
				Flags:     getFlags,
			},
			{
				Name:      "ls",
				Usage:     "List names stored in the database",
				UsageText: "rds db ls [--config-file <file>]",
				Action:    list,
				Flags:     options.Common,
			},
		},
	}}
}

func openStore(cfg config.ApplicationConfiguration) (storage.Store, error) {
	s, err := storage.NewStore(cfg.LazyLoad.DBConfiguration)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to open database: %w", err), 1)
	}
	return s, nil
}

func put(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError(errors.New("exactly one file is expected"), 1)
	}
	cfg, log, err := options.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	opts := cfg.Serialization.Options(log)
	c, err := value.Load(ctx.Args().First(), opts)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	name := ctx.String("name")
	if !c.IsImage() && name == "" {
		return cli.NewExitError(errors.New("--name is required for a single value"), 1)
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	w := lazyload.NewWriter(s, opts)
	if c.IsImage() {
		err = w.AddEnvironment(c.Env)
	} else {
		err = w.Add(name, c.Value)
	}
	if err == nil {
		err = w.Commit()
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func openDB(ctx *cli.Context) (*lazyload.DB, storage.Store, *zap.Logger, error) {
	cfg, log, err := options.Setup(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := lazyload.Open(s, cfg.LazyLoad.CacheSize, cfg.Serialization.Options(log))
	if err != nil {
		s.Close()
		return nil, nil, nil, cli.NewExitError(err, 1)
	}
	return db, s, log, nil
}

func get(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError(errors.New("exactly one name is expected"), 1)
	}
	db, s, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	defer func() { _ = log.Sync() }()

	v, err := db.Fetch(ctx.Args().First())
	if err == nil {
		err = value.Print(ctx.App.Writer, v, ctx.Bool("json"))
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func list(ctx *cli.Context) error {
	db, s, log, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	defer func() { _ = log.Sync() }()

	for _, name := range db.Names() {
		fmt.Fprintln(ctx.App.Writer, name)
	}
	return nil
}

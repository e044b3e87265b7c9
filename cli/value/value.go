package value

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/rds-go/cli/options"
	"github.com/nspcc-dev/rds-go/pkg/serial"
	"github.com/nspcc-dev/rds-go/pkg/sexp"
	"github.com/nspcc-dev/rds-go/pkg/workspace"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// Contents is either a single value or a set of workspace bindings.
type Contents struct {
	Value sexp.Value
	// Env and Names are set for workspace images.
	Env   *sexp.Environment
	Names []string
}

// IsImage checks whether contents were read from a workspace image.
func (c *Contents) IsImage() bool {
	return c.Env != nil
}

// NewCommands returns value-related commands.
func NewCommands() []cli.Command {
	inspectFlags := append([]cli.Flag{options.JSON}, options.Common...)
	convertFlags := append([]cli.Flag{
		cli.IntFlag{
			Name:  "version",
			Usage: "format version of the output (2 or 3), configuration is used if not set",
		},
		cli.StringFlag{
			Name:  "compress, c",
			Usage: "output compression (none, gzip or lz4), configuration is used if not set",
		},
	}, options.Common...)
	return []cli.Command{
		{
			Name:      "inspect",
			Usage:     "Print a serialized value or the contents of a workspace image",
			UsageText: "rds inspect [--json] [--config-file <file>] <file>",
			Action:    inspect,
			Flags:     inspectFlags,
		},
		{
			Name:      "convert",
			Usage:     "Rewrite a serialized value or a workspace image",
			UsageText: "rds convert [--version <n>] [--compress <method>] [--config-file <file>] <in> <out>",
			Description: `Reads the input (compressed or not) and writes it with the given format
   version and compression. Use '-' as the output to write into the standard
   output, it's refused for terminals.
`,
			Action: convert,
			Flags:  convertFlags,
		},
		{
			Name:      "diff",
			Usage:     "Compare two serialized values or workspace images",
			UsageText: "rds diff [--config-file <file>] <a> <b>",
			Description: `Compares values structurally and prints a unified diff of their JSON
   views if they differ. Exit code is 1 for different values.
`,
			Action: diff,
			Flags:  options.Common,
		},
	}
}

// Load reads a single value or a workspace image from the file at path.
func Load(path string, opts *serial.Options) (*Contents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := workspace.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	br := bufio.NewReader(r)
	head, _ := br.Peek(len("RDX2\n"))
	if workspace.IsImage(head) {
		env := sexp.NewEnvironment(sexp.GlobalEnv)
		names, err := workspace.Load(br, env, opts)
		if err != nil {
			return nil, err
		}
		return &Contents{Env: env, Names: names}, nil
	}
	v, err := serial.NewDecoder(br, opts).Decode()
	if err != nil {
		return nil, err
	}
	return &Contents{Value: v}, nil
}

// Root returns the value read or the environment holding image bindings.
func (c *Contents) Root() sexp.Value {
	if c.IsImage() {
		return c.Env
	}
	return c.Value
}

// Print writes the value as a string or as JSON.
func Print(w io.Writer, v sexp.Value, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, v.String())
		return err
	}
	data, err := sexp.MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func inspect(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError(errors.New("exactly one file is expected"), 1)
	}
	cfg, log, err := options.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c, err := Load(ctx.Args().First(), cfg.Serialization.Options(log))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	asJSON := ctx.Bool("json")
	w := ctx.App.Writer
	if !c.IsImage() {
		err = Print(w, c.Value, asJSON)
	}
	for _, name := range c.Names {
		v, _ := c.Env.Get(name)
		fmt.Fprintf(w, "%s:\n", name)
		if err = Print(w, v, asJSON); err != nil {
			break
		}
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func convert(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError(errors.New("input and output files are expected"), 1)
	}
	cfg, log, err := options.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if v := ctx.Int("version"); v != 0 {
		cfg.Serialization.Version = v
	}
	comp := cfg.Workspace.Compression
	if ctx.IsSet("compress") {
		comp = ctx.String("compress")
	}
	c, err := workspace.ParseCompression(comp)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	opts := cfg.Serialization.Options(log)

	in, out := ctx.Args().Get(0), ctx.Args().Get(1)
	contents, err := Load(in, opts)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to read %s: %w", in, err), 1)
	}

	var w = ctx.App.Writer
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		w = f
	} else if err := options.CheckBinaryOutput(w); err != nil {
		return cli.NewExitError(err, 1)
	}

	if contents.IsImage() {
		err = workspace.Save(w, contents.Env, c, opts)
	} else {
		var data []byte
		data, err = serial.Serialize(contents.Value, opts)
		if err == nil {
			err = workspace.Compress(w, c, data)
		}
	}
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to write %s: %w", out, err), 1)
	}
	log.Debug("converted", zap.String("in", in), zap.String("out", out),
		zap.Int("version", opts.Version), zap.String("compression", string(c)))
	return nil
}

// errDiffer is returned when compared values are not equal.
var errDiffer = errors.New("values differ")

func diff(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError(errors.New("two files are expected"), 1)
	}
	cfg, log, err := options.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var (
		roots [2]sexp.Value
		texts [2]string
	)
	for i := range roots {
		c, err := Load(ctx.Args().Get(i), cfg.Serialization.Options(log))
		if err != nil {
			return cli.NewExitError(fmt.Errorf("failed to read %s: %w", ctx.Args().Get(i), err), 1)
		}
		roots[i] = c.Root()
	}
	if sexp.Equal(roots[0], roots[1]) {
		return nil
	}
	for i, v := range roots {
		data, err := sexp.MarshalJSON(v)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		texts[i] = string(data) + "\n"
	}
	ud, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(texts[0]),
		B:        difflib.SplitLines(texts[1]),
		FromFile: ctx.Args().Get(0),
		ToFile:   ctx.Args().Get(1),
		Context:  3,
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprint(ctx.App.Writer, ud)
	return cli.NewExitError(errDiffer, 1)
}

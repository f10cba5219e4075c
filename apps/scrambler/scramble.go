package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PhantomInTheWire/image-scrambler/pkg/config"
	"github.com/PhantomInTheWire/image-scrambler/pkg/finder"
	"github.com/PhantomInTheWire/image-scrambler/pkg/history"
	"github.com/PhantomInTheWire/image-scrambler/pkg/scramble"
	"github.com/PhantomInTheWire/image-scrambler/pkg/storage"
)

// transformFlags are shared by scramble and submit.
type transformFlags struct {
	flipV   bool
	flipH   bool
	gray    bool
	puzzle  bool
	columns int
	rows    int
	grid    string
}

func (f *transformFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.flipV, "flipv", false, "Flip image vertically (upside down)")
	fs.BoolVar(&f.flipH, "fliph", false, "Flip image horizontally (left right)")
	fs.BoolVarP(&f.gray, "gray", "g", false, "Make image gray")
	fs.BoolVar(&f.puzzle, "puzzle", false, "Cut image into a shuffled puzzle")
	fs.IntVarP(&f.columns, "columns", "c", 0, "Puzzle columns (default from config, 5)")
	fs.IntVar(&f.rows, "rows", 0, "Puzzle rows (default from config, 5)")
	fs.StringVar(&f.grid, "grid", "", "Puzzle grid as cols,rows")
}

// options merges the flags over the configured puzzle grid.
func (f *transformFlags) options(cfg config.Config, fs *pflag.FlagSet) (scramble.Options, error) {
	opts := scramble.Options{
		FlipVertical:   f.flipV,
		FlipHorizontal: f.flipH,
		Gray:           f.gray,
		Puzzle:         f.puzzle,
		Columns:        cfg.Puzzle.Columns,
		Rows:           cfg.Puzzle.Rows,
	}
	if fs.Changed("grid") {
		cols, rows, err := scramble.ParseGrid(f.grid)
		if err != nil {
			return opts, err
		}
		opts.Columns, opts.Rows = cols, rows
	}
	if fs.Changed("columns") {
		opts.Columns = f.columns
	}
	if fs.Changed("rows") {
		opts.Rows = f.rows
	}
	if opts.Puzzle && (opts.Columns < 0 || opts.Rows < 0) {
		return opts, fmt.Errorf("%w: %dx%d cells", scramble.ErrInvalidGrid, opts.Columns, opts.Rows)
	}
	return opts, nil
}

var scrambleFlags struct {
	transform transformFlags

	dir       string
	pattern   string
	recursive bool
	prune     bool
	output    string
	seed      int64
	noHistory bool

	upload     bool
	fromBucket string
	keys       []string
}

var scrambleCmd = &cobra.Command{
	Use:   "scramble [files...]",
	Short: "Scramble image files",
	Long: `Scramble the given files, or every file in --directory matching --pattern.

Operations always run in the same order: flipv, fliph, gray, puzzle.
The output name lists the operations that ran, e.g. cat-flipv-gray.png.

With --from-bucket the sources are the --key objects of that bucket instead
of local files; this is what jobs created by 'scrambler submit' run.

Examples:
  scrambler scramble --fliph cat.png dog.jpg
  scrambler scramble -d photos -p '*.png' -r -o out --gray --puzzle
  scrambler scramble --puzzle --grid 8,6 --seed 42 cat.png
  scrambler scramble --from-bucket images --key in/cat.png --gray --upload`,
	RunE: runScramble,
}

func init() {
	f := scrambleCmd.Flags()
	scrambleFlags.transform.register(f)
	f.StringVarP(&scrambleFlags.dir, "directory", "d", ".", "Directory to search for images")
	f.StringVarP(&scrambleFlags.pattern, "pattern", "p", "", "File name glob to scramble (default from config, *)")
	f.BoolVarP(&scrambleFlags.recursive, "recursive", "r", false, "Search subdirectories")
	f.BoolVar(&scrambleFlags.prune, "prune", false, "Skip symbolic links")
	f.StringVarP(&scrambleFlags.output, "output", "o", "", "Output directory (default: next to each source)")
	f.Int64Var(&scrambleFlags.seed, "seed", 0, "Puzzle RNG seed (0 = random based on time)")
	f.BoolVar(&scrambleFlags.noHistory, "no-history", false, "Do not record runs in the history database")
	f.BoolVar(&scrambleFlags.upload, "upload", false, "Upload scrambled images to the configured bucket")
	f.StringVar(&scrambleFlags.fromBucket, "from-bucket", "", "Read sources from this bucket")
	f.StringArrayVar(&scrambleFlags.keys, "key", nil, "Object key to scramble (with --from-bucket, repeatable)")
}

func runScramble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	opts, err := scrambleFlags.transform.options(cfg, cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	seed := scrambleFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := &runner{
		pipeline: scramble.NewPipeline(rand.New(rand.NewSource(seed))),
		opts:     opts,
		seed:     seed,
		outDir:   firstNonEmpty(scrambleFlags.output, cfg.OutputDir),
		logger:   logger,
	}

	if !scrambleFlags.noHistory {
		dbPath, err := config.ExpandHome(cfg.HistoryDB)
		if err != nil {
			return err
		}
		store, err := history.Open(dbPath)
		if err != nil {
			logger.Warn("history disabled", "err", err)
		} else {
			defer store.Close()
			r.history = store
		}
	}

	fromBucket := scrambleFlags.fromBucket != ""
	if fromBucket {
		if len(scrambleFlags.keys) == 0 {
			return errors.New("--from-bucket needs at least one --key")
		}
		if !scrambleFlags.upload && r.outDir == "" {
			return errors.New("--from-bucket needs --upload or --output")
		}
	}
	if scrambleFlags.upload || fromBucket {
		scfg := storageConfig(cfg)
		if fromBucket {
			scfg.Bucket = scrambleFlags.fromBucket
		}
		client, err := storage.New(ctx, scfg, logger)
		if err != nil {
			return err
		}
		if scrambleFlags.upload {
			if err := client.EnsureBucket(ctx); err != nil {
				return err
			}
			r.uploader = client
		}
		if fromBucket {
			r.source = client
			r.bucket = scfg.Bucket
		}
	}

	if fromBucket {
		return r.runObjects(ctx, scrambleFlags.keys)
	}

	inputs := args
	explicit := len(args) > 0
	if !explicit {
		inputs, err = finder.Find(finder.Options{
			Dir:          scrambleFlags.dir,
			Pattern:      firstNonEmpty(scrambleFlags.pattern, cfg.Pattern),
			Recursive:    scrambleFlags.recursive,
			SkipSymlinks: scrambleFlags.prune,
		}, logger)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			logger.Info("no images found", "dir", scrambleFlags.dir)
			return nil
		}
	}
	return r.runFiles(ctx, inputs, explicit)
}

func storageConfig(cfg config.Config) storage.Config {
	return storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

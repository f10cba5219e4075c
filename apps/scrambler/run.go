package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/PhantomInTheWire/image-scrambler/pkg/codec"
	"github.com/PhantomInTheWire/image-scrambler/pkg/history"
	"github.com/PhantomInTheWire/image-scrambler/pkg/scramble"
)

type uploader interface {
	UploadFile(ctx context.Context, p string) (string, error)
}

type downloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// runner scrambles a batch of images with one pipeline, so the puzzle
// RNG carries over from one image to the next.
type runner struct {
	pipeline *scramble.Pipeline
	opts     scramble.Options
	seed     int64
	outDir   string
	logger   *log.Logger

	history  *history.Store
	uploader uploader
	source   downloader
	bucket   string
}

// runFiles scrambles local files. Files that are not images are skipped
// unless they were named explicitly.
func (r *runner) runFiles(ctx context.Context, paths []string, explicit bool) error {
	failed := 0
	for _, p := range paths {
		out, err := r.scrambleFile(ctx, p)
		switch {
		case err == nil:
			r.logger.Info("scrambled", "source", p, "output", out)
		case !explicit && errors.Is(err, codec.ErrDecode):
			r.logger.Warn("skipping non-image file", "path", p)
		default:
			r.logger.Error("scramble failed", "path", p, "err", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(paths))
	}
	return nil
}

// runObjects scrambles bucket objects.
func (r *runner) runObjects(ctx context.Context, keys []string) error {
	failed := 0
	for _, k := range keys {
		out, err := r.scrambleObject(ctx, k)
		if err != nil {
			r.logger.Error("scramble failed", "bucket", r.bucket, "key", k, "err", err)
			failed++
			continue
		}
		r.logger.Info("scrambled", "bucket", r.bucket, "key", k, "output", out)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d objects failed", failed, len(keys))
	}
	return nil
}

func (r *runner) scrambleFile(ctx context.Context, src string) (string, error) {
	buf, err := codec.Open(src)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", src, err)
	}
	dir := r.outDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return r.finish(ctx, buf, src, dir)
}

func (r *runner) scrambleObject(ctx context.Context, key string) (string, error) {
	if r.source == nil {
		return "", errors.New("no bucket configured")
	}
	body, err := r.source.Download(ctx, key)
	if err != nil {
		return "", err
	}
	buf, err := codec.Decode(body)
	body.Close()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}

	dir := r.outDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "scrambler")
		if err != nil {
			return "", err
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}
	return r.finish(ctx, buf, "s3://"+path.Join(r.bucket, key), dir)
}

// finish runs the pipeline on buf and writes, records and uploads the result.
func (r *runner) finish(ctx context.Context, buf *image.NRGBA, src, dir string) (string, error) {
	res, err := r.pipeline.Run(buf, r.opts)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, scramble.OutputName(src, res.Tags))
	if err := codec.Save(res.Image, out); err != nil {
		return "", err
	}

	if r.uploader != nil {
		key, err := r.uploader.UploadFile(ctx, out)
		if err != nil {
			return "", err
		}
		out = key
	}

	if r.history != nil {
		e := history.Entry{Source: src, Output: out, Tags: res.Tags, Seed: r.seed}
		if r.opts.Puzzle {
			e.Columns, e.Rows = r.opts.Grid()
		}
		if _, err := r.history.Record(e); err != nil {
			r.logger.Warn("could not record history", "source", src, "err", err)
		}
	}
	return out, nil
}

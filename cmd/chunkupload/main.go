// Command chunkupload uploads a local file to a bucket, splitting it into
// multipart parts when it is larger than the configured part size.
//
// Usage:
//
//	chunkupload -config chunkupload.yaml -bucket uploads -key backups/db.tar /var/backups/db.tar
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	units "github.com/docker/go-units"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/config"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fset := flag.NewFlagSet("chunkupload", flag.ContinueOnError)
	configPath := fset.String("config", "", "path to a YAML configuration file")
	envFile := fset.String("env-file", ".env", "optional .env file with CHUNKUPLOAD_ overrides")
	bucket := fset.String("bucket", "", "destination bucket (defaults to default_bucket)")
	key := fset.String("key", "", "destination object key (defaults to the file name)")
	contentType := fset.String("content-type", "", "content type override")
	verbose := fset.Bool("v", false, "enable debug logging")
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: chunkupload [flags] <file>")
		fset.PrintDefaults()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	path := absPath(fset.Arg(0))
	if *key == "" {
		*key = filepath.Base(path)
	}

	fs := osfs.New("/")
	cfg, err := config.Load(fs, absPath(*configPath), absPath(*envFile))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}

	client, err := chunkupload.New(append(cfg.Options(),
		chunkupload.WithLogger(logger),
		chunkupload.WithFilesystem(fs),
	)...)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		return 1
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []uploadtypes.UploadOption{
		chunkupload.WithProgressFunc(progressLogger(logger)),
	}
	if *contentType != "" {
		opts = append(opts, chunkupload.WithContentType(*contentType))
	}

	res, err := client.UploadFile(ctx, *bucket, *key, path, opts...)
	if err != nil {
		logger.Error("upload failed", "error", err, "code", errors.Code(err))
		if errors.IsCleanupFailed(err) {
			logger.Warn("multipart parts may remain in the bucket; abort the upload manually")
		}
		return 1
	}

	logger.Info("upload finished",
		"key", res.Key,
		"size", units.BytesSize(float64(res.Size)),
		"parts", res.Parts,
		"etag", res.ETag,
		"duration", res.Duration,
	)
	return 0
}

// absPath resolves p against the working directory since the filesystem is
// rooted at "/".
func absPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// progressLogger logs at most once per ten percent step.
func progressLogger(logger *slog.Logger) func(uploadtypes.ProgressEvent) {
	lastStep := int64(-1)
	return func(e uploadtypes.ProgressEvent) {
		if e.Total <= 0 {
			return
		}
		step := e.Loaded * 10 / e.Total
		if step == lastStep {
			return
		}
		lastStep = step
		logger.Info("upload progress",
			"loaded", units.BytesSize(float64(e.Loaded)),
			"total", units.BytesSize(float64(e.Total)),
			"percent", step*10,
		)
	}
}

package multipart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/parts"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/progress"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Config tunes the uploader.
type Config struct {
	// QueueSize is the number of parts transferred concurrently per batch
	QueueSize int

	// VerifyAttempts is how many times cleanup lists residual parts before giving up
	VerifyAttempts int

	// VerifyInterval is the pause between verification attempts
	VerifyInterval time.Duration

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Uploader handles multipart upload operations.
// It holds no per-upload state and is safe for concurrent use.
type Uploader struct {
	store store.ObjectStore
	cfg   Config
}

// NewUploader creates a new multipart uploader.
func NewUploader(st store.ObjectStore, cfg Config) *Uploader {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = uploadtypes.DefaultQueueSize
	}
	if cfg.VerifyAttempts <= 0 {
		cfg.VerifyAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return &Uploader{store: st, cfg: cfg}
}

// Request describes one multipart upload.
type Request struct {
	Target   store.Target
	Payload  io.ReaderAt
	Size     int64
	PartSize int64

	// Progress receives per-part byte counts; may be nil
	Progress *progress.Aggregator

	// QueueSize overrides the uploader's batch width when positive
	QueueSize int

	// Logger overrides the uploader's logger when set
	Logger *slog.Logger
}

// Result is the outcome of a completed multipart upload.
type Result struct {
	UploadID  string
	Key       string
	ETag      string
	VersionID string
	Parts     []uploadtypes.CompletedPart
}

// session is the in-memory state of one multipart upload. It is created after
// the store assigns an upload ID and cleared on both success and failure.
type session struct {
	target    store.Target
	uploadID  string
	payload   io.ReaderAt
	total     int64
	manifest  []uploadtypes.CompletedPart
	agg       *progress.Aggregator
	listeners []*progress.Listener
	logger    *slog.Logger
}

func (s *session) releaseListeners() {
	for _, l := range s.listeners {
		l.Release()
	}
	s.listeners = nil
}

// clear drops the payload reference and manifest once the session is over.
func (s *session) clear() {
	s.releaseListeners()
	s.payload = nil
	s.manifest = nil
	s.total = 0
}

// reset clears the session and zeroes the progress counters after a failure.
func (s *session) reset() {
	s.clear()
	if s.agg != nil {
		s.agg.Reset()
	}
}

// Upload performs a multipart upload of req.Payload.
// Any failure after the session is created triggers cleanup before returning.
func (u *Uploader) Upload(ctx context.Context, req Request) (*Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = u.cfg.Logger
	}
	queueSize := req.QueueSize
	if queueSize <= 0 {
		queueSize = u.cfg.QueueSize
	}
	agg := req.Progress
	if agg == nil {
		agg = progress.NewAggregator(req.Target.Key, req.Size, nil)
	}

	ctx, span := u.cfg.Tracer.Start(ctx, "multipart.Upload", trace.WithAttributes(
		attribute.String("bucket", req.Target.Bucket),
		attribute.String("key", req.Target.Key),
		attribute.Int64("size", req.Size),
		attribute.Int64("part_size", req.PartSize),
	))
	defer span.End()

	uploadID, err := u.store.CreateMultipartUpload(ctx, req.Target)
	if err != nil {
		err = uperrors.NewKindError("createMultipartUpload", uperrors.ErrSessionCreationFailed, err).
			WithBucket(req.Target.Bucket).
			WithKey(req.Target.Key)
		logger.ErrorContext(ctx, "failed to create multipart upload", "error", err)
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("upload_id", uploadID))

	sess := &session{
		target:   req.Target,
		uploadID: uploadID,
		payload:  req.Payload,
		total:    req.Size,
		agg:      agg,
		logger:   logger.With("upload_id", uploadID),
	}

	chunks := parts.Split(sess.payload, sess.total, req.PartSize)
	sess.logger.DebugContext(ctx, "multipart upload created",
		"parts", len(chunks),
		"part_size", req.PartSize,
		"queue_size", queueSize,
	)

	for start := 0; start < len(chunks); start += queueSize {
		end := start + queueSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := u.uploadBatch(ctx, sess, chunks[start:end]); err != nil {
			err = u.cleanup(ctx, sess, err)
			recordError(span, err)
			return nil, err
		}
	}

	sess.releaseListeners()

	result, err := u.complete(ctx, sess)
	if err != nil {
		err = u.cleanup(ctx, sess, err)
		recordError(span, err)
		return nil, err
	}

	sess.clear()
	return result, nil
}

// uploadBatch transfers one window of parts concurrently. Every transfer in the
// batch runs to completion before it returns, even when a sibling fails; the
// results of a failed batch are discarded.
func (u *Uploader) uploadBatch(ctx context.Context, sess *session, batch []parts.Part) error {
	ctx, span := u.cfg.Tracer.Start(ctx, "multipart.UploadBatch", trace.WithAttributes(
		attribute.Int("first_part", int(batch[0].Number)),
		attribute.Int("parts", len(batch)),
	))
	defer span.End()

	sess.logger.DebugContext(ctx, "uploading batch",
		"first_part", batch[0].Number,
		"parts", len(batch),
	)

	listeners := make([]*progress.Listener, len(batch))
	for i := range batch {
		listeners[i] = sess.agg.Register(batch[i].Number)
	}
	sess.listeners = listeners

	var g errgroup.Group
	for i := range batch {
		part := &batch[i]
		listener := listeners[i]
		g.Go(func() error {
			defer listener.Release()
			return u.uploadPart(ctx, sess, part, listener)
		})
	}
	if err := g.Wait(); err != nil {
		recordError(span, err)
		return err
	}

	// positional correlation: manifest order follows the batch input order
	for i := range batch {
		sess.manifest = append(sess.manifest, uploadtypes.CompletedPart{
			PartNumber: batch[i].Number,
			ETag:       batch[i].ETag,
			Size:       batch[i].Size,
		})
	}
	return nil
}

func (u *Uploader) uploadPart(ctx context.Context, sess *session, part *parts.Part, listener *progress.Listener) error {
	body := progress.NewReader(part.Body, listener)
	etag, err := u.store.UploadPart(ctx, sess.target, sess.uploadID, part.Number, body, part.Size)
	if err == nil && etag == "" {
		err = errors.New("store returned an empty etag")
	}
	if err != nil {
		sess.logger.DebugContext(ctx, "part upload failed", "part", part.Number, "error", err)
		return uperrors.NewKindError("uploadPart", uperrors.ErrPartUploadFailed, err).
			WithBucket(sess.target.Bucket).
			WithKey(sess.target.Key).
			WithUploadID(sess.uploadID).
			WithPart(part.Number)
	}

	part.ETag = etag
	sess.logger.DebugContext(ctx, "part uploaded", "part", part.Number, "size", part.Size)
	return nil
}

// complete finalizes the session with the manifest sorted by part number.
func (u *Uploader) complete(ctx context.Context, sess *session) (*Result, error) {
	manifest := append([]uploadtypes.CompletedPart(nil), sess.manifest...)
	sort.Slice(manifest, func(i, j int) bool { return manifest[i].PartNumber < manifest[j].PartNumber })

	if err := checkManifest(manifest); err != nil {
		return nil, uperrors.NewKindError("completeMultipartUpload", uperrors.ErrFinalizationFailed, err).
			WithBucket(sess.target.Bucket).
			WithKey(sess.target.Key).
			WithUploadID(sess.uploadID)
	}

	out, err := u.store.CompleteMultipartUpload(ctx, sess.target, sess.uploadID, manifest)
	if err != nil {
		return nil, uperrors.NewKindError("completeMultipartUpload", uperrors.ErrFinalizationFailed, err).
			WithBucket(sess.target.Bucket).
			WithKey(sess.target.Key).
			WithUploadID(sess.uploadID)
	}

	sess.logger.InfoContext(ctx, "multipart upload completed", "parts", len(manifest))
	return &Result{
		UploadID:  sess.uploadID,
		Key:       out.Key,
		ETag:      out.ETag,
		VersionID: out.VersionID,
		Parts:     manifest,
	}, nil
}

// checkManifest verifies one entry per part, numbered 1..n, each with an ETag.
func checkManifest(manifest []uploadtypes.CompletedPart) error {
	for i, p := range manifest {
		if p.PartNumber != int32(i+1) {
			return fmt.Errorf("manifest has gap or duplicate at part %d", p.PartNumber)
		}
		if p.ETag == "" {
			return fmt.Errorf("manifest part %d has no etag", p.PartNumber)
		}
	}
	return nil
}

// cleanup discards the session after cause and verifies the store no longer
// holds parts for it. It returns cause unchanged unless parts remain, in which
// case it returns a *errors.CleanupError wrapping cause.
//
// It runs with a context detached from the caller's cancellation so a
// cancelled upload still releases its server-side state.
func (u *Uploader) cleanup(ctx context.Context, sess *session, cause error) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := u.cfg.Tracer.Start(ctx, "multipart.Cleanup", trace.WithAttributes(
		attribute.String("upload_id", sess.uploadID),
	))
	defer span.End()

	sess.reset()
	if sess.uploadID == "" {
		return cause
	}

	sess.logger.WarnContext(ctx, "aborting multipart upload", "cause", cause)

	// A failed abort still gets a residual check; leftover parts must surface.
	if err := u.store.AbortMultipartUpload(ctx, sess.target, sess.uploadID); err != nil &&
		!errors.Is(err, store.ErrNoSuchUpload) {
		sess.logger.ErrorContext(ctx, "failed to abort multipart upload", "error", err)
		recordError(span, err)
	}

	residual, err := u.verify(ctx, sess)
	if err != nil {
		sess.logger.ErrorContext(ctx, "failed to list parts after abort", "error", err)
		recordError(span, err)
		return cause
	}
	if residual > 0 {
		cleanupErr := &uperrors.CleanupError{
			Bucket:        sess.target.Bucket,
			Key:           sess.target.Key,
			UploadID:      sess.uploadID,
			ResidualParts: residual,
			Cause:         cause,
		}
		sess.logger.ErrorContext(ctx, "multipart upload clean up failed", "residual_parts", residual)
		recordError(span, cleanupErr)
		return cleanupErr
	}

	sess.logger.InfoContext(ctx, "multipart upload aborted")
	return cause
}

// verify lists residual parts, retrying at a constant interval while parts remain.
// A "no such upload" answer counts as zero residual parts.
func (u *Uploader) verify(ctx context.Context, sess *session) (int, error) {
	var residual int
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(u.cfg.VerifyInterval), uint64(u.cfg.VerifyAttempts-1)),
		ctx,
	)

	var listErr error
	err := backoff.Retry(func() error {
		listed, err := u.store.ListParts(ctx, sess.target, sess.uploadID)
		switch {
		case errors.Is(err, store.ErrNoSuchUpload):
			residual, listErr = 0, nil
			return nil
		case err != nil:
			listErr = err
			return err
		}
		residual, listErr = len(listed), nil
		if residual > 0 {
			return fmt.Errorf("%d parts remain", residual)
		}
		return nil
	}, b)

	if listErr != nil {
		return 0, listErr
	}
	if err != nil && residual == 0 {
		return 0, err
	}
	return residual, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

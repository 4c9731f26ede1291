package manager

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/body"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/parts"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/progress"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// DefaultContentType is used when the content type cannot be determined.
const DefaultContentType = "application/octet-stream"

// TracerName is the instrumentation scope of spans started by the manager.
const TracerName = "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload"

// Config configures a Manager.
type Config struct {
	Limits         uploadtypes.Limits
	VerifyAttempts int
	VerifyInterval time.Duration
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

// Manager runs uploads against a store. It is safe for concurrent use; every
// call to Upload is an independent session.
type Manager struct {
	store     store.ObjectStore
	limits    uploadtypes.Limits
	multipart *multipart.Uploader
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a manager. Zero limits are replaced by the defaults.
func New(st store.ObjectStore, cfg Config) *Manager {
	if cfg.Limits == (uploadtypes.Limits{}) {
		cfg.Limits = uploadtypes.DefaultLimits()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = noop.NewTracerProvider()
	}
	tracer := cfg.TracerProvider.Tracer(TracerName)

	return &Manager{
		store:  st,
		limits: cfg.Limits,
		multipart: multipart.NewUploader(st, multipart.Config{
			QueueSize:      cfg.Limits.QueueSize,
			VerifyAttempts: cfg.VerifyAttempts,
			VerifyInterval: cfg.VerifyInterval,
			Logger:         cfg.Logger,
			Tracer:         tracer,
		}),
		logger: cfg.Logger,
		tracer: tracer,
	}
}

// Limits returns the limits the manager enforces.
func (m *Manager) Limits() uploadtypes.Limits {
	return m.limits
}

// Options carries per-upload settings that are not object attributes.
type Options struct {
	Progress  uploadtypes.ProgressSink
	QueueSize int
}

// Upload stores req.Body under req.Bucket/req.Key.
//
// Payloads no larger than the default part size go out in one request. Larger
// payloads use a multipart session whose server-side state is removed again if
// any step fails.
func (m *Manager) Upload(
	ctx context.Context,
	req *uploadtypes.UploadRequest,
	opts Options,
) (*uploadtypes.UploadResult, error) {
	started := time.Now()
	logger := m.logger.With(
		"operation_id", uuid.NewString(),
		"bucket", req.Bucket,
		"key", req.Key,
	)

	ctx, span := m.tracer.Start(ctx, "chunkupload.Upload", trace.WithAttributes(
		attribute.String("bucket", req.Bucket),
		attribute.String("key", req.Key),
	))
	defer span.End()

	if err := validate(req); err != nil {
		recordError(span, err)
		return nil, err
	}

	payload, err := body.Sanitize(req.Body, m.limits.MaxObjectSize)
	if err != nil {
		err = withObject(err, req.Bucket, req.Key)
		logger.DebugContext(ctx, "rejected upload body", "error", err)
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("size", payload.Size),
		attribute.String("body_kind", payload.Kind.String()),
	)

	target := store.Target{
		Bucket: req.Bucket,
		Key:    req.Key,
		Attrs:  prepareAttributes(&req.Attributes, payload, req.Key),
	}
	agg := progress.NewAggregator(req.Key, payload.Size, opts.Progress)

	var result *uploadtypes.UploadResult
	if payload.Size <= m.limits.DefaultPartSize {
		result, err = m.put(ctx, logger, target, payload, agg)
	} else {
		result, err = m.multipartUpload(ctx, logger, target, payload, agg, opts.QueueSize)
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	result.Size = payload.Size
	result.Duration = time.Since(started)
	logger.InfoContext(ctx, "upload completed",
		"size", result.Size,
		"parts", result.Parts,
		"duration", result.Duration,
	)
	return result, nil
}

func (m *Manager) put(
	ctx context.Context,
	logger *slog.Logger,
	target store.Target,
	payload *body.Payload,
	agg *progress.Aggregator,
) (*uploadtypes.UploadResult, error) {
	logger.DebugContext(ctx, "uploading with a single request", "size", payload.Size)

	listener := agg.Register(0)
	defer listener.Release()

	out, err := m.store.PutObject(ctx, target, progress.NewReader(payload.Section(), listener), payload.Size)
	if err != nil {
		agg.Reset()
		err = uperrors.NewKindError("putObject", uperrors.ErrUploadFailed, err).
			WithBucket(target.Bucket).
			WithKey(target.Key)
		logger.ErrorContext(ctx, "upload failed", "error", err)
		return nil, err
	}

	return &uploadtypes.UploadResult{
		Key:       target.Key,
		ETag:      out.ETag,
		VersionID: out.VersionID,
	}, nil
}

func (m *Manager) multipartUpload(
	ctx context.Context,
	logger *slog.Logger,
	target store.Target,
	payload *body.Payload,
	agg *progress.Aggregator,
	queueSize int,
) (*uploadtypes.UploadResult, error) {
	partSize, err := parts.SelectSize(m.limits, payload.Size)
	if err != nil {
		return nil, withObject(err, target.Bucket, target.Key)
	}

	res, err := m.multipart.Upload(ctx, multipart.Request{
		Target:    target,
		Payload:   payload.ReaderAt(),
		Size:      payload.Size,
		PartSize:  partSize,
		Progress:  agg,
		QueueSize: queueSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	key := res.Key
	if key == "" {
		key = target.Key
	}
	return &uploadtypes.UploadResult{
		Key:       key,
		ETag:      res.ETag,
		VersionID: res.VersionID,
		Parts:     len(res.Parts),
		UploadID:  res.UploadID,
	}, nil
}

func validate(req *uploadtypes.UploadRequest) error {
	if err := validation.ValidateBucketName(req.Bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(req.Key); err != nil {
		return withObject(err, req.Bucket, req.Key)
	}
	if err := validation.ValidateAttributes(&req.Attributes); err != nil {
		return withObject(err, req.Bucket, req.Key)
	}
	return nil
}

// prepareAttributes copies the caller's attributes and fills in the computed
// content type and SSE-C key digest.
func prepareAttributes(attrs *uploadtypes.ObjectAttributes, payload *body.Payload, key string) *uploadtypes.ObjectAttributes {
	out := attrs.Clone()
	out.ContentType = ResolveContentType(out.ContentType, payload, key)

	if out.SSE.IsCustomerKey() && out.SSE.CustomerKeyMD5 == "" {
		// key was validated as base64
		raw, _ := base64.StdEncoding.DecodeString(out.SSE.CustomerKey)
		out.SSE.CustomerKeyMD5 = validation.CustomerKeyMD5(raw)
	}
	return out
}

// ResolveContentType picks the content type in order: explicit, implied by
// the body kind, sniffed from the payload, the key's extension, and finally
// DefaultContentType. Generic sniff results yield to a known extension.
func ResolveContentType(explicit string, payload *body.Payload, key string) string {
	if explicit != "" {
		return explicit
	}
	if payload.ContentType != "" {
		return payload.ContentType
	}

	var sniffed *mimetype.MIME
	if head := payload.Head(); len(head) > 0 {
		sniffed = mimetype.Detect(head)
		if !sniffed.Is(DefaultContentType) && !sniffed.Is("text/plain") {
			return sniffed.String()
		}
	}

	if ext := strings.ToLower(path.Ext(key)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	if sniffed != nil {
		return sniffed.String()
	}
	return DefaultContentType
}

// withObject fills in bucket and key on errors raised before they were known.
func withObject(err error, bucket, key string) error {
	var uerr *uperrors.Error
	if errors.As(err, &uerr) {
		if uerr.Bucket == "" {
			uerr.Bucket = bucket
		}
		if uerr.Key == "" {
			uerr.Key = key
		}
		return err
	}
	return uperrors.NewObjectError("upload", bucket, key, err)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

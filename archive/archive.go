// Package archive saves projection runs to a blobstore.BlobStore.
//
// Every run is written as one self-describing frame under runs/<id>.evz. The
// CURRENT blob names the most recently saved run.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/embedviz/blobstore"
	"github.com/hupe1980/embedviz/codec"
)

var (
	// ErrNotFound is returned for unknown run IDs and for Latest on an empty archive.
	ErrNotFound = errors.New("archive: run not found")
	// ErrCorrupt is returned when a stored frame fails validation.
	ErrCorrupt = errors.New("archive: corrupt record")
)

const (
	runsDir       = "runs/"
	fileExt       = ".evz"
	commitRetries = 3
)

type options struct {
	codec       codec.Codec
	compression Compression
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures an Archive.
type Option func(*options)

// WithCodec sets the codec for new records. Existing records are decoded with
// the codec named in their frame.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the compression for new records.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Archive stores and loads Records.
type Archive struct {
	store blobstore.BlobStore
	opts  options
}

// New creates an Archive on store. Records are encoded with codec.Default
// and compressed with zstd unless configured otherwise.
func New(store blobstore.BlobStore, opts ...Option) *Archive {
	o := options{
		codec:       codec.Default,
		compression: CompressionZstd,
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Archive{store: store, opts: o}
}

func blobName(id string) string {
	return runsDir + id + fileExt
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// Save assigns an ID and creation time when missing, writes the record and
// moves CURRENT to it.
func (a *Archive) Save(ctx context.Context, r *Record) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("archive: generate id: %w", err)
		}
		r.ID = id.String()
	}
	if !validID(r.ID) {
		return fmt.Errorf("archive: invalid run id %q", r.ID)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = a.opts.now().UTC()
	}

	data, err := encodeFrame(r, a.opts.codec, a.opts.compression)
	if err != nil {
		return err
	}
	if err := a.store.Put(ctx, blobName(r.ID), data); err != nil {
		return fmt.Errorf("archive: write %s: %w", r.ID, err)
	}
	if err := a.setCurrent(ctx, r.ID); err != nil {
		return err
	}

	a.opts.logger.Debug("run archived",
		slog.String("id", r.ID),
		slog.Int("bytes", len(data)),
		slog.Int("points", len(r.Texts)),
	)
	return nil
}

// setCurrent points CURRENT at id, retrying when a concurrent writer
// committed first. The last writer wins.
func (a *Archive) setCurrent(ctx context.Context, id string) error {
	var err error
	for attempt := 0; attempt < commitRetries; attempt++ {
		err = a.store.Put(ctx, blobstore.CurrentName, []byte(id))
		if !errors.Is(err, blobstore.ErrConflict) {
			break
		}
		a.opts.logger.Debug("CURRENT commit conflict", slog.Int("attempt", attempt+1))
	}
	if err != nil {
		return fmt.Errorf("archive: update %s: %w", blobstore.CurrentName, err)
	}
	return nil
}

// Load reads the run with the given ID.
func (a *Archive) Load(ctx context.Context, id string) (*Record, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := blobstore.Get(ctx, a.store, blobName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("archive: read %s: %w", id, err)
	}

	var r Record
	if _, err := decodeFrame(data, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &r, nil
}

// Latest loads the run CURRENT points at.
func (a *Archive) Latest(ctx context.Context) (*Record, error) {
	data, err := blobstore.Get(ctx, a.store, blobstore.CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("archive: read %s: %w", blobstore.CurrentName, err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return nil, ErrNotFound
	}
	return a.Load(ctx, id)
}

// List returns the IDs of all archived runs in ascending order. IDs generated
// by Save sort by creation time.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	names, err := a.store.List(ctx, runsDir)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if path.Ext(name) != fileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(path.Base(name), fileExt))
	}
	return ids, nil
}

// Delete removes a run. When it was the CURRENT run, CURRENT moves to the
// newest remaining run, or is removed when none is left.
func (a *Archive) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	b, err := a.store.Open(ctx, blobName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	_ = b.Close()
	if err := a.store.Delete(ctx, blobName(id)); err != nil {
		return fmt.Errorf("archive: delete %s: %w", id, err)
	}

	current, err := blobstore.Get(ctx, a.store, blobstore.CurrentName)
	if err != nil || strings.TrimSpace(string(current)) != id {
		return nil
	}
	ids, err := a.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return a.store.Delete(ctx, blobstore.CurrentName)
	}
	return a.setCurrent(ctx, ids[len(ids)-1])
}

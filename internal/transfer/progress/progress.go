package progress

import (
	"io"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Aggregator tracks the aggregate byte counter of one upload.
// It is safe for concurrent use; sink calls are serialized.
type Aggregator struct {
	mu        sync.Mutex
	key       string
	total     int64
	loaded    int64
	sink      uploadtypes.ProgressSink
	listeners map[int32]*Listener
}

// NewAggregator creates an aggregator for an upload of total bytes.
// A nil sink is allowed; the counter is still maintained.
func NewAggregator(key string, total int64, sink uploadtypes.ProgressSink) *Aggregator {
	return &Aggregator{
		key:       key,
		total:     total,
		sink:      sink,
		listeners: make(map[int32]*Listener),
	}
}

// Register attaches a listener for the given part number, replacing any
// previous listener for the same part.
func (a *Aggregator) Register(part int32) *Listener {
	a.mu.Lock()
	defer a.mu.Unlock()

	l := &Listener{agg: a, part: part}
	a.listeners[part] = l
	return l
}

// Loaded returns the aggregate bytes counted so far.
func (a *Aggregator) Loaded() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Total returns the payload size the aggregator was created with.
func (a *Aggregator) Total() int64 {
	return a.total
}

// Listeners returns the number of registered listeners.
func (a *Aggregator) Listeners() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners)
}

// Reset deregisters every listener and zeroes the counter. Listeners held by
// in-flight transfers become inert.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range a.listeners {
		l.released = true
	}
	a.listeners = make(map[int32]*Listener)
	a.loaded = 0
}

// Listener converts one part's cumulative counter into aggregate deltas.
type Listener struct {
	agg      *Aggregator
	part     int32
	high     int64
	released bool
}

// Part returns the part number the listener reports for.
func (l *Listener) Part() int32 {
	return l.part
}

// Observe records that the part has transferred loaded bytes in total.
// Values at or below the high-water mark are ignored.
func (l *Listener) Observe(loaded int64) {
	a := l.agg
	a.mu.Lock()
	defer a.mu.Unlock()

	if l.released || loaded <= l.high {
		return
	}
	delta := loaded - l.high
	l.high = loaded
	a.loaded += delta
	if a.total > 0 && a.loaded > a.total {
		a.loaded = a.total
	}

	if a.sink != nil {
		a.sink.Progress(uploadtypes.ProgressEvent{
			Loaded: a.loaded,
			Total:  a.total,
			Part:   l.part,
			Key:    a.key,
		})
	}
}

// Release deregisters the listener. Later observations are ignored.
func (l *Listener) Release() {
	a := l.agg
	a.mu.Lock()
	defer a.mu.Unlock()

	l.released = true
	if current, ok := a.listeners[l.part]; ok && current == l {
		delete(a.listeners, l.part)
	}
}

// Reader reports the cumulative bytes read from a part body to a Listener.
// It is position aware: seeking back and re-reading does not count twice.
type Reader struct {
	r        io.ReadSeeker
	listener *Listener
	pos      int64
}

// NewReader wraps r so reads are reported to listener.
func NewReader(r io.ReadSeeker, listener *Listener) *Reader {
	return &Reader{r: r, listener: listener}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.pos += int64(n)
		r.listener.Observe(r.pos)
	}
	return n, err
}

// Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.r.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	r.pos = pos
	return pos, nil
}

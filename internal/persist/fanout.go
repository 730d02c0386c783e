package persist

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Destination is one sink behind the fan-out: the durable local store, the
// legacy remote API, a filesystem export folder. Each fails independently.
type Destination interface {
	Name() string
	// Debounce is how long to sit on a key before flushing. Zero means write
	// through immediately on every Persist call.
	Debounce() time.Duration
	Write(scopeID, key string, data []byte) error
}

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// Fanout is the single persistence door the ledger talks to. Persist never
// blocks on I/O and never reports failure to the caller: in-memory state is
// authoritative, downstream writes are best-effort. Debounced destinations
// collapse bursts of writes to the same key into one call, keeping only the
// latest snapshot.
type Fanout struct {
	log          zerolog.Logger
	destinations []Destination

	mu      sync.Mutex
	pending map[string]*time.Timer // dest/scope/key -> trailing-edge timer
	latest  map[string][]byte      // dest/scope/key -> newest payload
	wg      sync.WaitGroup
}

func NewFanout(log zerolog.Logger, destinations ...Destination) *Fanout {
	return &Fanout{
		log:          log.With().Str("component", "persist").Logger(),
		destinations: destinations,
		pending:      make(map[string]*time.Timer),
		latest:       make(map[string][]byte),
	}
}

// Persist marshals the snapshot once and dispatches it to every destination.
func (f *Fanout) Persist(scopeID, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		f.log.Error().Err(err).Str("key", key).Msg("snapshot marshal failed")
		return
	}

	for _, dest := range f.destinations {
		if dest.Debounce() <= 0 {
			f.dispatch(dest, scopeID, key, data)
			continue
		}
		f.schedule(dest, scopeID, key, data)
	}
}

func (f *Fanout) schedule(dest Destination, scopeID, key string, data []byte) {
	id := dest.Name() + "/" + scopeID + "/" + key

	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest[id] = data
	if t, ok := f.pending[id]; ok {
		t.Reset(dest.Debounce())
		return
	}
	f.pending[id] = time.AfterFunc(dest.Debounce(), func() {
		f.mu.Lock()
		payload, ok := f.latest[id]
		if !ok {
			// A Reset raced with a timer that had already fired: the first
			// run consumed the payload, this run has nothing to flush.
			f.mu.Unlock()
			return
		}
		delete(f.latest, id)
		delete(f.pending, id)
		f.mu.Unlock()
		f.dispatch(dest, scopeID, key, payload)
	})
}

func (f *Fanout) dispatch(dest Destination, scopeID, key string, data []byte) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.writeWithRetry(dest, scopeID, key, data)
	}()
}

func (f *Fanout) writeWithRetry(dest Destination, scopeID, key string, data []byte) {
	backoff := retryBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = dest.Write(scopeID, key, data); err == nil {
			return
		}
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	f.log.Warn().
		Err(err).
		Str("destination", dest.Name()).
		Str("scope", scopeID).
		Str("key", key).
		Msg("persist failed after retries, giving up")
}

// Close flushes every pending debounced write and waits for in-flight ones.
func (f *Fanout) Close() {
	f.mu.Lock()
	for id, t := range f.pending {
		if t.Stop() {
			// Timer was still pending: flush its payload now.
			parts := splitID(id)
			if parts != nil {
				if dest := f.findDestination(parts[0]); dest != nil {
					f.dispatch(dest, parts[1], parts[2], f.latest[id])
				}
			}
		}
		delete(f.pending, id)
		delete(f.latest, id)
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Fanout) findDestination(name string) Destination {
	for _, d := range f.destinations {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

func splitID(id string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(id) && len(parts) < 2; i++ {
		if id[i] == '/' {
			parts = append(parts, id[start:i])
			start = i + 1
		}
	}
	parts = append(parts, id[start:])
	if len(parts) != 3 {
		return nil
	}
	return parts
}

package assets

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Store keeps generated media blobs in memory and hands out locally-owned
// handles. A blob lives exactly as long as its handle: releasing the handle
// drops the bytes. Nothing is persisted.
type Store struct {
	mu    sync.Mutex
	blobs map[string]blob
}

type blob struct {
	data     []byte
	mime     string
	filename string
}

// Handle is an exclusively-owned reference to a stored blob. The owner must
// release it when the blob is superseded or no longer displayed. Release is
// idempotent so teardown paths may overlap safely.
type Handle struct {
	id    string
	mime  string
	store *Store

	releaseOnce sync.Once
}

// NewStore creates an empty blob store.
func NewStore() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// Put stores a blob and returns its owning handle.
func (s *Store) Put(data []byte, mime, filename string) *Handle {
	id := uuid.NewString()
	s.mu.Lock()
	s.blobs[id] = blob{data: data, mime: mime, filename: filename}
	s.mu.Unlock()
	return &Handle{id: id, mime: mime, store: s}
}

// Get returns the blob for an id. Released or unknown ids report an error.
func (s *Store) Get(id string) ([]byte, string, string, error) {
	s.mu.Lock()
	b, ok := s.blobs[id]
	s.mu.Unlock()
	if !ok {
		return nil, "", "", errors.New("assets: blob not found")
	}
	return b.data, b.mime, b.filename, nil
}

// Len reports how many blobs are currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// ID returns the handle's addressable id.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// MIME returns the blob's media type.
func (h *Handle) MIME() string {
	if h == nil {
		return ""
	}
	return h.mime
}

// Release frees the backing blob. Releasing twice, or releasing a nil handle,
// is a no-op.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.releaseOnce.Do(func() {
		h.store.mu.Lock()
		delete(h.store.blobs, h.id)
		h.store.mu.Unlock()
	})
}

// Package panel models the studio's three interactive panels (generate,
// edit, video) as server-side state machines. Each panel moves through
// idle → loading → success|error per user action; the video panel
// additionally owns the lifecycle of its generated media blob.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mediastudio/internal/assets"
	"mediastudio/internal/domain"
	"mediastudio/internal/media"
	"mediastudio/internal/providers/genai"
)

// Status is a panel's lifecycle state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Client is the slice of the generation client the panels consume.
type Client interface {
	GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error)
	EditImage(ctx context.Context, prompt string, image genai.SourceImage) ([]genai.Part, error)
	GenerateVideo(ctx context.Context, req genai.VideoRequest) ([]byte, error)
}

// Session groups the three panels a connected studio tab owns.
type Session struct {
	ID       string
	Generate *GeneratePanel
	Edit     *EditPanel
	Video    *VideoPanel

	mu     sync.Mutex
	closed bool
}

// Close tears the session down, releasing any media the video panel still
// owns. Closing twice is safe.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.Video.release()
}

// Manager tracks live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	client   Client
	store    *assets.Store
	locale   string
}

// NewManager creates a session manager backed by the generation client and
// blob store.
func NewManager(client Client, store *assets.Store, defaultLocale string) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		client:   client,
		store:    store,
		locale:   defaultLocale,
	}
}

// Open creates a new session with idle panels.
func (m *Manager) Open() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Generate: &GeneratePanel{client: m.client},
		Edit:     &EditPanel{client: m.client},
	}
	s.Video = &VideoPanel{client: m.client, store: m.store, defaultLocale: m.locale}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	return s, nil
}

// CloseSession tears down and forgets a session (the view unmounted).
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	s.Close()
	return nil
}

// GeneratePanel drives single-image synthesis.
type GeneratePanel struct {
	client Client

	mu      sync.Mutex
	status  Status
	errMsg  string
	png     []byte
	dataURI string
	file    string
}

// Run synthesizes an image for the prompt. One request at a time; a submit
// while loading is rejected with ErrBusy.
func (p *GeneratePanel) Run(ctx context.Context, prompt, aspectRatio string) error {
	if err := p.begin(); err != nil {
		return err
	}
	data, err := p.client.GenerateImage(ctx, prompt, aspectRatio)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusError
		p.errMsg = err.Error()
		return err
	}
	p.status = StatusSuccess
	p.errMsg = ""
	p.png = data
	p.dataURI = media.DataURI("image/png", data)
	p.file = media.SlugFilename(prompt, "png")
	return nil
}

func (p *GeneratePanel) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusLoading {
		return domain.ErrBusy
	}
	p.status = StatusLoading
	p.errMsg = ""
	return nil
}

// Snapshot returns the panel's current state for rendering.
func (p *GeneratePanel) Snapshot() (Status, string, string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return statusOrIdle(p.status), p.errMsg, p.dataURI, p.file
}

// EditPanel drives single-round-trip image editing.
type EditPanel struct {
	client Client

	mu     sync.Mutex
	status Status
	errMsg string
	parts  []genai.Part
	file   string
}

// Run submits the encoded image and instruction together. The returned parts
// keep the model's ordering.
func (p *EditPanel) Run(ctx context.Context, prompt string, image genai.SourceImage) error {
	p.mu.Lock()
	if p.status == StatusLoading {
		p.mu.Unlock()
		return domain.ErrBusy
	}
	p.status = StatusLoading
	p.errMsg = ""
	p.mu.Unlock()

	parts, err := p.client.EditImage(ctx, prompt, image)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusError
		p.errMsg = err.Error()
		return err
	}
	p.status = StatusSuccess
	p.errMsg = ""
	p.parts = parts
	p.file = media.SlugFilename(prompt, "")
	return nil
}

// Snapshot returns the panel state plus the ordered result parts.
func (p *EditPanel) Snapshot() (Status, string, []genai.Part, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return statusOrIdle(p.status), p.errMsg, p.parts, p.file
}

func statusOrIdle(s Status) Status {
	if s == "" {
		return StatusIdle
	}
	return s
}

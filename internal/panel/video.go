package panel

import (
	"context"
	"sync"
	"time"

	"mediastudio/internal/assets"
	"mediastudio/internal/domain"
	"mediastudio/internal/media"
	"mediastudio/internal/providers/genai"
)

// VideoPanel drives long-running video generation. It owns at most one
// generated video blob at a time: a new result releases the previous handle,
// and session teardown releases whatever is left.
type VideoPanel struct {
	client        Client
	store         *assets.Store
	defaultLocale string

	mu        sync.Mutex
	status    Status
	errMsg    string
	handle    *assets.Handle
	file      string
	locale    string
	startedAt time.Time
}

// Run generates a video to completion. The call blocks through the remote
// job's whole poll cycle; a second submit while one is in flight is rejected
// with ErrBusy.
func (p *VideoPanel) Run(ctx context.Context, locale string, req genai.VideoRequest) error {
	p.mu.Lock()
	if p.status == StatusLoading {
		p.mu.Unlock()
		return domain.ErrBusy
	}
	p.status = StatusLoading
	p.errMsg = ""
	p.locale = locale
	p.startedAt = time.Now()
	p.mu.Unlock()

	data, err := p.client.GenerateVideo(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status = StatusError
		p.errMsg = err.Error()
		return err
	}

	handle := p.store.Put(data, "video/mp4", media.SlugFilename(req.Prompt, "mp4"))

	// The previous blob is released before the replacement is published, so
	// the panel never owns two videos at once.
	p.handle.Release()
	p.handle = handle
	p.file = media.SlugFilename(req.Prompt, "mp4")
	p.status = StatusSuccess
	p.errMsg = ""
	return nil
}

// Snapshot returns the panel state: status, error message, the owned asset id
// (empty unless successful) and the current progress message while loading.
func (p *VideoPanel) Snapshot() (Status, string, string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := statusOrIdle(p.status)
	progress := ""
	if status == StatusLoading {
		progress = progressMessage(p.effectiveLocale(), time.Since(p.startedAt))
	}
	return status, p.errMsg, p.handle.ID(), progress
}

// Filename returns the download filename of the owned video.
func (p *VideoPanel) Filename() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file
}

func (p *VideoPanel) effectiveLocale() string {
	if p.locale != "" {
		return p.locale
	}
	return p.defaultLocale
}

func (p *VideoPanel) release() {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	p.mu.Unlock()
	handle.Release()
}

package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/granthub/granthub-api/model"
)

// DefaultAutosaveQuiet is the quiet period before a buffered edit is written
const DefaultAutosaveQuiet = 2 * time.Second

// Autosaver coalesces rapid draft edits into a single write per application.
// Each call replaces the buffered payload and restarts the quiet-period timer;
// the latest payload is written once the edits stop. Write failures are
// logged and never surfaced, so autosave can never block further editing.
type Autosaver struct {
	apps  *ApplicationService
	quiet time.Duration

	mu      sync.Mutex
	pending map[uint]*autosaveEntry
	closed  bool
}

type autosaveEntry struct {
	timer  *time.Timer
	caller Caller
	data   *model.ApplicationData
}

// NewAutosaver creates an autosaver over the application service. A
// non-positive quiet period falls back to the default.
func NewAutosaver(apps *ApplicationService, quiet time.Duration) *Autosaver {
	if quiet <= 0 {
		quiet = DefaultAutosaveQuiet
	}
	return &Autosaver{
		apps:    apps,
		quiet:   quiet,
		pending: make(map[uint]*autosaveEntry),
	}
}

// Save buffers a draft edit for background persistence
func (a *Autosaver) Save(caller Caller, appID uint, data *model.ApplicationData) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	if entry, ok := a.pending[appID]; ok {
		entry.caller = caller
		entry.data = data
		entry.timer.Reset(a.quiet)
		return
	}

	entry := &autosaveEntry{caller: caller, data: data}
	entry.timer = time.AfterFunc(a.quiet, func() {
		a.flush(appID)
	})
	a.pending[appID] = entry
}

// flush writes the buffered payload for one application
func (a *Autosaver) flush(appID uint) {
	a.mu.Lock()
	entry, ok := a.pending[appID]
	if ok {
		delete(a.pending, appID)
	}
	a.mu.Unlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.apps.SaveDraft(ctx, entry.caller, appID, entry.data); err != nil {
		log.Printf("Autosave: failed to save draft %d: %v", appID, err)
	}
}

// Close flushes everything still buffered and stops accepting new edits
func (a *Autosaver) Close() {
	a.mu.Lock()
	a.closed = true
	ids := make([]uint, 0, len(a.pending))
	for id, entry := range a.pending {
		entry.timer.Stop()
		ids = append(ids, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		a.flush(id)
	}
}

package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invoice-workbench/backend/internal/aggregate"
	"github.com/invoice-workbench/backend/internal/models"
	"github.com/invoice-workbench/backend/internal/progress"
	"github.com/invoice-workbench/backend/internal/queue"
	"github.com/invoice-workbench/backend/internal/validation"
)

// MaxWorkspaces limits concurrent workspaces to prevent memory exhaustion
const MaxWorkspaces = 50

// WorkspaceMaxAge is how long to keep idle workspaces before cleanup
const WorkspaceMaxAge = 30 * time.Minute

// WorkspaceKeepAliveWindow is how long to keep workspaces that are actively being used
const WorkspaceKeepAliveWindow = 5 * time.Minute

// QueueFactory opens the review queue store for a workspace. Nil disables
// queue persistence.
type QueueFactory func(workspaceID string) (*queue.Store, error)

// Manager holds all active invoice workspaces.
type Manager struct {
	workspaces map[string]*Workspace
	mu         sync.RWMutex
	newQueue   QueueFactory
	rules      validation.Rules
}

// Workspace is one reviewer's working state: the current aggregate snapshot,
// the in-flight batch tracker, and the persisted review queue.
type Workspace struct {
	ID           string
	Aggregate    *models.AggregateResult
	Tracker      *progress.Tracker
	BatchID      string
	Queue        *queue.Store
	LastAccessed time.Time
}

// NewManager creates a workspace manager.
func NewManager(rules validation.Rules, newQueue QueueFactory) *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
		newQueue:   newQueue,
		rules:      rules,
	}
}

// GetOrCreate returns the workspace for an ID, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(id)
}

func (m *Manager) getOrCreateLocked(id string) *Workspace {
	if ws, ok := m.workspaces[id]; ok {
		ws.LastAccessed = time.Now()
		return ws
	}

	m.evictIdleLocked()

	ws := &Workspace{
		ID:           id,
		LastAccessed: time.Now(),
	}
	if m.newQueue != nil {
		store, err := m.newQueue(id)
		if err != nil {
			fmt.Printf("[Workspace %s] WARNING: review queue unavailable: %v\n", short(id), err)
		} else {
			ws.Queue = store
		}
	}
	m.workspaces[id] = ws
	return ws
}

// StartBatch begins tracking a new upload batch for a workspace. Any batch
// still in flight is abandoned; its tracker keeps ticking but resolution is
// ignored because the batch ID no longer matches.
func (m *Manager) StartBatch(workspaceID string, files []progress.FileMeta) (string, *progress.Tracker) {
	batchID := uuid.New().String()
	tracker := progress.NewTracker(files)

	m.mu.Lock()
	defer m.mu.Unlock()

	ws := m.getOrCreateLocked(workspaceID)
	if ws.BatchID != "" && ws.Tracker != nil && !ws.Tracker.Resolved() {
		fmt.Printf("[Workspace %s] Abandoning in-flight batch %s\n", short(workspaceID), short(ws.BatchID))
	}
	ws.BatchID = batchID
	ws.Tracker = tracker

	fmt.Printf("[Workspace %s] Starting batch %s with %d file(s)\n",
		short(workspaceID), short(batchID), len(files))
	return batchID, tracker
}

// ResolveBatch installs the extraction result for a batch and marks every file
// complete. A stale batch ID is ignored so an abandoned extraction cannot
// clobber a newer one.
func (m *Manager) ResolveBatch(workspaceID, batchID string, result *models.AggregateResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.BatchID != batchID {
		fmt.Printf("[Workspace %s] Ignoring result for stale batch %s\n", short(workspaceID), short(batchID))
		return
	}

	ws.Aggregate = result
	ws.LastAccessed = time.Now()
	if ws.Tracker != nil {
		ws.Tracker.Complete()
	}
	m.syncQueueLocked(ws)

	count := 0
	if result != nil {
		count = len(result.Invoices)
	}
	fmt.Printf("[Workspace %s] Batch %s complete: %d invoice(s)\n",
		short(workspaceID), short(batchID), count)
}

// FailBatch marks every file of a batch failed with one shared message.
// Stale batch IDs are ignored.
func (m *Manager) FailBatch(workspaceID, batchID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.BatchID != batchID {
		return
	}

	ws.LastAccessed = time.Now()
	if ws.Tracker != nil {
		ws.Tracker.Fail(message)
	}
	fmt.Printf("[Workspace %s] Batch %s failed: %s\n", short(workspaceID), short(batchID), message)
}

// Tracker returns the current batch tracker for a workspace, if any.
func (m *Manager) Tracker(workspaceID string) (*progress.Tracker, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.Tracker == nil {
		return nil, "", false
	}
	return ws.Tracker, ws.BatchID, true
}

// Aggregate returns the current aggregate snapshot for a workspace. Nil means
// no batch has completed yet.
func (m *Manager) Aggregate(workspaceID string) *models.AggregateResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return nil
	}
	return ws.Aggregate
}

// ApplyEdit applies a review edit to one invoice, revalidates it, and installs
// a freshly summarized snapshot. Returns the new snapshot, or nil when the
// workspace has no aggregate yet.
func (m *Manager) ApplyEdit(workspaceID, invoiceID string, patch models.InvoicePatch, lineItems []models.LineItem) *models.AggregateResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.Aggregate == nil {
		return nil
	}
	ws.LastAccessed = time.Now()

	next := aggregate.ApplyEdit(ws.Aggregate, invoiceID, patch, lineItems)
	if next == nil {
		return nil
	}

	// Edits change amounts, so the math checks and review status of the
	// edited invoice are recomputed before summarization.
	if inv, ok := next.Invoices[invoiceID]; ok {
		next.Invoices[invoiceID] = validation.Revalidate(inv, m.rules)
	}
	next = aggregate.Recompute(next)

	ws.Aggregate = next
	m.syncQueueLocked(ws)
	return next
}

// Queue returns the review queue store for a workspace, if persistence is
// enabled.
func (m *Manager) Queue(workspaceID string) (*queue.Store, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || ws.Queue == nil {
		return nil, false
	}
	return ws.Queue, true
}

// syncQueueLocked rewrites the persisted review queue from the workspace's
// current snapshot. Queue persistence is best effort; a failure never blocks
// the edit.
func (m *Manager) syncQueueLocked(ws *Workspace) {
	if ws.Queue == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ws.Queue.Replace(ctx, ws.Aggregate); err != nil {
		fmt.Printf("[Workspace %s] WARNING: queue sync failed: %v\n", short(ws.ID), err)
	}
}

// evictIdleLocked drops the least recently used workspaces when at capacity.
func (m *Manager) evictIdleLocked() {
	if len(m.workspaces) < MaxWorkspaces {
		return
	}

	ids := make([]string, 0, len(m.workspaces))
	for id := range m.workspaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.workspaces[ids[i]].LastAccessed.Before(m.workspaces[ids[j]].LastAccessed)
	})

	toFree := len(m.workspaces) - MaxWorkspaces + 1
	for _, id := range ids[:toFree] {
		m.closeLocked(id)
		fmt.Printf("[Manager] Evicted workspace %s to free memory\n", short(id))
	}
}

// CleanupIdle removes workspaces idle longer than maxAge, keeping any touched
// within WorkspaceKeepAliveWindow.
func (m *Manager) CleanupIdle(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-WorkspaceKeepAliveWindow)

	for id, ws := range m.workspaces {
		if ws.Tracker != nil && !ws.Tracker.Resolved() {
			continue
		}
		if ws.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if ws.LastAccessed.Before(cutoff) {
			m.closeLocked(id)
			fmt.Printf("[Manager] Cleaned up idle workspace %s (last accessed %s ago)\n",
				short(id), time.Since(ws.LastAccessed).Round(time.Second))
		}
	}
}

// Close releases every workspace's resources.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.workspaces {
		m.closeLocked(id)
	}
}

func (m *Manager) closeLocked(id string) {
	ws, ok := m.workspaces[id]
	if !ok {
		return
	}
	if ws.Queue != nil {
		ws.Queue.Close()
	}
	delete(m.workspaces, id)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

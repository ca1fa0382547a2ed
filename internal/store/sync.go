package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kstrand/attic/internal/session"
	"github.com/kstrand/attic/internal/tree"
	"github.com/kstrand/attic/internal/ui"
)

// SyncStore wraps a local store and mirrors the tree to the proxy's
// remote key-value endpoint. Remote writes are best-effort: a failed
// sync never fails the save and never touches in-memory state. Loads
// prefer the remote copy and fall back to the local cache.
type SyncStore struct {
	local  Store
	url    string
	apiKey string
	client *http.Client
}

// NewSyncStore wraps local with remote sync against the proxy URL.
func NewSyncStore(local Store, url, apiKey string) *SyncStore {
	return &SyncStore{
		local:  local,
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SyncStore) Load(ctx context.Context) (*session.State, error) {
	local, err := s.local.Load(ctx)
	if err != nil {
		return nil, err
	}
	remote, rerr := s.loadRemote(ctx)
	if rerr != nil {
		ui.Logger.Warn("Remote load failed, using local copy", "err", rerr)
		return local, nil
	}
	if remote == nil {
		return local, nil
	}
	if local == nil {
		local = &session.State{}
	}
	local.Tree = remote
	// Refresh the local cache with the remote copy, best-effort.
	_ = s.local.Save(ctx, local)
	return local, nil
}

func (s *SyncStore) loadRemote(ctx context.Context) (*tree.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/data", nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(b))
	}
	var t *tree.Node
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SyncStore) Save(ctx context.Context, st *session.State) error {
	if err := s.local.Save(ctx, st); err != nil {
		return err
	}
	// Best-effort mirror of the tree to the remote endpoint.
	if err := s.saveRemote(ctx, st.Tree); err != nil {
		ui.Logger.Warn("Remote sync failed, data saved locally", "err", err)
	}
	return nil
}

func (s *SyncStore) saveRemote(ctx context.Context, t *tree.Node) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url+"/data", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server error %d", resp.StatusCode)
	}
	return nil
}

func (s *SyncStore) Flush(ctx context.Context) error { return s.local.Flush(ctx) }

func (s *SyncStore) Close() error { return s.local.Close() }

// DebouncedSaver coalesces rapid successive saves into one write after
// a quiet period. Long-running frontends use it so every mutation can
// request a save without hammering the backend; Flush writes any
// pending state immediately before teardown.
type DebouncedSaver struct {
	store Store
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *session.State
}

// NewDebouncedSaver wraps a store with a 500ms quiet period.
func NewDebouncedSaver(s Store) *DebouncedSaver {
	return &DebouncedSaver{store: s, delay: 500 * time.Millisecond}
}

// Save schedules st to be written after the quiet period, replacing
// any not-yet-written state.
func (d *DebouncedSaver) Save(st *session.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = st
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flushPending)
}

func (d *DebouncedSaver) flushPending() {
	d.mu.Lock()
	st := d.pending
	d.pending = nil
	d.mu.Unlock()
	if st != nil {
		if err := d.store.Save(context.Background(), st); err != nil {
			ui.Logger.Warn("Deferred save failed", "err", err)
		}
	}
}

// Flush writes any pending state immediately.
func (d *DebouncedSaver) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	st := d.pending
	d.pending = nil
	d.mu.Unlock()
	if st != nil {
		if err := d.store.Save(ctx, st); err != nil {
			return err
		}
	}
	return d.store.Flush(ctx)
}

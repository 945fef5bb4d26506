package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/typeahead/internal/pipeline"
	"github.com/runger/typeahead/internal/provider"
	"github.com/runger/typeahead/internal/snapshot"
)

type recordingProvider struct {
	mu      sync.Mutex
	queries []string
	hits    []snapshot.Hit
}

func (p *recordingProvider) Search(ctx context.Context, req provider.Request) (provider.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, req.Query)
	return provider.Response{RequestID: req.RequestID, Hits: p.hits}, nil
}

func (p *recordingProvider) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.queries))
	copy(out, p.queries)
	return out
}

func newTestModel(t *testing.T, p provider.Provider) Model {
	t.Helper()
	pipe := pipeline.New(p, pipeline.WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pipe.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	m := NewModel(pipe)
	m.width = 80
	m.height = 24
	return m
}

// applySnap feeds a snapshot into the model the way the listen command
// would.
func applySnap(m Model, s snapshot.Snapshot) Model {
	result, _ := m.Update(snapshotMsg(s))
	return result.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func populated(titles ...string) snapshot.Snapshot {
	hits := make([]snapshot.Hit, len(titles))
	for i, title := range titles {
		hits[i] = snapshot.Hit{Title: title}
	}
	return snapshot.WithResult(snapshot.FromHits(hits))
}

func TestNewModel_SeedsFromPipeline(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	require.NotNil(t, m.snap.Result)
	assert.Equal(t, snapshot.KindNoTerm, m.snap.Result.Kind)
	assert.Contains(t, m.View(), "type to search")
}

func TestTyping_PushesTextEvents(t *testing.T) {
	rec := &recordingProvider{hits: []snapshot.Hit{{Title: "doc"}}}
	m := newTestModel(t, rec)

	var model tea.Model = m
	model, _ = model.Update(keyRunes("g"))
	model, _ = model.Update(keyRunes("o"))
	_ = model

	// After the debounce window, the final value reaches the provider.
	require.Eventually(t, func() bool {
		calls := rec.calls()
		return len(calls) > 0 && calls[len(calls)-1] == "go"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSnapshotMsg_RendersStates(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})

	loading := applySnap(m, snapshot.Loading())
	assert.Contains(t, loading.View(), "searching")

	failed := applySnap(m, snapshot.Failed())
	assert.Contains(t, failed.View(), "search failed")

	empty := applySnap(m, snapshot.WithResult(snapshot.FromHits(nil)))
	assert.Contains(t, empty.View(), "no matches")

	withHits := applySnap(m, populated("first doc", "second doc"))
	view := withHits.View()
	assert.Contains(t, view, "first doc")
	assert.Contains(t, view, "second doc")
}

func TestView_SanitizesHitText(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	m = applySnap(m, snapshot.WithResult(snapshot.FromHits([]snapshot.Hit{
		{Title: "bad\xffbytes", Snippet: "\x1b[31mcolored\x1b[0m"},
	})))

	view := m.View()
	assert.Contains(t, view, "bad�bytes")
	assert.NotContains(t, view, "\xff")
	assert.Contains(t, view, "colored")
	assert.NotContains(t, view, "\x1b[31m")
}

func TestSnapshotMsg_RequestsNextListen(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	_, cmd := m.Update(snapshotMsg(snapshot.Loading()))
	assert.NotNil(t, cmd)
}

func TestNavigation_AndEnterSelects(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	m = applySnap(m, populated("alpha", "beta", "gamma"))
	assert.Equal(t, 0, m.selection)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(Model)
	assert.Equal(t, 1, m.selection)

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(Model)
	assert.Equal(t, 0, m.selection)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(Model)
	assert.Equal(t, "alpha", m.Result())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSelection_ClampedAcrossSnapshots(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	m = applySnap(m, populated("a", "b", "c"))

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(Model)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(Model)
	assert.Equal(t, 2, m.selection)

	m = applySnap(m, populated("only"))
	assert.Equal(t, 0, m.selection)

	m = applySnap(m, snapshot.WithResult(snapshot.FromHits(nil)))
	assert.Equal(t, -1, m.selection)
}

func TestEsc_Quits(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStreamClosed_Quits(t *testing.T) {
	m := newTestModel(t, &recordingProvider{})
	_, cmd := m.Update(streamClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

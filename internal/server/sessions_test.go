package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardbuddy/wardbuddy/internal/llm"
	"github.com/wardbuddy/wardbuddy/internal/session"
	"github.com/wardbuddy/wardbuddy/internal/store"
	"github.com/wardbuddy/wardbuddy/internal/tutor"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultPrefs() *tutor.Preferences {
	p := tutor.DefaultPreferences()
	return &p
}

// slowProvider delays each reply so overlapping submissions are observable.
type slowProvider struct {
	mu    sync.Mutex
	delay time.Duration
	calls int
}

func (p *slowProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()

	time.Sleep(p.delay)
	last := req.Messages[len(req.Messages)-1]
	return &llm.Response{Text: fmt.Sprintf("reply %d to %s", n, last.Content)}, nil
}

func (p *slowProvider) ModelID() string { return "slow" }

func TestSubmitTurn_AppendsPair(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Text: "Good start. What does the ECG show?\n\n\n"})
	mgr := NewManager(provider, testLogger(), time.Second, nil)
	sess := mgr.Get(context.Background(), "s1")

	result := sess.SubmitTurn("Patient presents with chest pain", defaultPrefs())

	require.False(t, result.failed)
	require.Len(t, result.turns, 2)
	assert.Equal(t, session.Turn{Role: session.RoleUser, Content: "Patient presents with chest pain"}, result.turns[0])
	// Assistant turn carries the formatted backend response.
	assert.Equal(t, session.Turn{Role: session.RoleAssistant, Content: "Good start. What does the ECG show?"}, result.turns[1])
}

func TestSubmitTurn_BackendFailureAppendsGenericError(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{Err: errors.New("502")},
	})
	mgr := NewManager(provider, testLogger(), time.Second, nil)
	sess := mgr.Get(context.Background(), "s1")

	result := sess.SubmitTurn("my case", defaultPrefs())

	require.True(t, result.failed)
	// Policy: the user turn is kept and the generic text becomes the
	// assistant turn, so context is not silently lost.
	require.Len(t, result.turns, 2)
	assert.Equal(t, session.RoleUser, result.turns[0].Role)
	assert.Equal(t, "my case", result.turns[0].Content)
	assert.Equal(t, tutor.GenericErrorMessage, result.turns[1].Content)
	assert.NotContains(t, result.turns[1].Content, "502")

	// The session stays usable for the next turn.
	provider.AddResponse(llm.MockResponse{Text: "recovered"})
	next := sess.SubmitTurn("my case again", defaultPrefs())
	require.False(t, next.failed)
	assert.Len(t, next.turns, 4)
}

func TestSubmitTurn_OverlappingSubmissionsStayOrdered(t *testing.T) {
	provider := &slowProvider{delay: 100 * time.Millisecond}
	mgr := NewManager(provider, testLogger(), time.Second, nil)
	sess := mgr.Get(context.Background(), "s1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sess.SubmitTurn("first", defaultPrefs())
	}()
	time.Sleep(20 * time.Millisecond) // second submission lands while first is in flight
	go func() {
		defer wg.Done()
		sess.SubmitTurn("second", defaultPrefs())
	}()
	wg.Wait()

	turns := sess.History().Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, session.RoleAssistant, turns[1].Role)
	assert.Contains(t, turns[1].Content, "to first")
	assert.Equal(t, "second", turns[2].Content)
	assert.Contains(t, turns[3].Content, "to second")
}

func TestManager_ReusesSessionByID(t *testing.T) {
	mgr := NewManager(llm.NewMockProvider(), testLogger(), time.Second, nil)

	a := mgr.Get(context.Background(), "same")
	b := mgr.Get(context.Background(), "same")
	c := mgr.Get(context.Background(), "other")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, mgr.Count())
}

func TestManager_RestoresPersistedSession(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/wb.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	turns := []session.Turn{
		{Role: session.RoleUser, Content: "q"},
		{Role: session.RoleAssistant, Content: "a"},
	}
	prefs := tutor.Preferences{
		ClinicalReasoning:    2.0,
		MedicalKnowledge:     1.0,
		PresentationSkills:   1.0,
		DifferentialBuilding: 1.0,
	}
	require.NoError(t, st.SaveTranscript(context.Background(), "returning", turns, prefs))

	mgr := NewManager(llm.NewMockProvider(), testLogger(), time.Second, st)
	sess := mgr.Get(context.Background(), "returning")

	assert.Equal(t, turns, sess.History().Turns())
	assert.Equal(t, prefs, sess.Tutor().Preferences())
}

func TestSubmitTurn_PersistsTranscript(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/wb.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	provider := llm.NewMockProvider(llm.MockResponse{Text: "reply"})
	mgr := NewManager(provider, testLogger(), time.Second, st)
	sess := mgr.Get(context.Background(), "s1")

	sess.SubmitTurn("case", defaultPrefs())

	saved, err := st.LoadTranscript(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Turns, 2)
}

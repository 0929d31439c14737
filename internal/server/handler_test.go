package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardbuddy/wardbuddy/internal/llm"
	"github.com/wardbuddy/wardbuddy/internal/tutor"
)

type client struct {
	t       *testing.T
	handler *Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T, provider llm.Provider) *client {
	mgr := NewManager(provider, testLogger(), time.Second, nil)
	return &client{t: t, handler: NewHandler(mgr, testLogger())}
}

func (c *client) do(fn http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	fn(rec, req)

	if cs := rec.Result().Cookies(); len(cs) > 0 {
		c.cookies = cs
	}

	var fields map[string]json.RawMessage
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &fields))
	return rec, fields
}

func historyLen(t *testing.T, fields map[string]json.RawMessage) int {
	var turns []map[string]string
	require.NoError(t, json.Unmarshal(fields["history"], &turns))
	return len(turns)
}

func TestChat_SuccessfulTurn(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Text: "solid differential"})
	c := newClient(t, provider)

	rec, fields := c.do(c.handler.Chat, http.MethodPost,
		`{"message":"Patient presents with chest pain","preferences":{"clinical_reasoning":1,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, historyLen(t, fields))
	assert.NotContains(t, fields, "notice")

	var turns []map[string]string
	require.NoError(t, json.Unmarshal(fields["history"], &turns))
	assert.Equal(t, "user", turns[0]["role"])
	assert.Equal(t, "Patient presents with chest pain", turns[0]["content"])
	assert.Equal(t, "assistant", turns[1]["role"])
	assert.Equal(t, "solid differential", turns[1]["content"])
}

func TestChat_EmptyMessageSkipsBackend(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Text: "should not be used"})
	c := newClient(t, provider)

	for _, msg := range []string{"", "   ", "\n\t "} {
		rec, fields := c.do(c.handler.Chat, http.MethodPost,
			`{"message":`+strconvQuote(msg)+`,"preferences":{"clinical_reasoning":1,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var notice string
		require.NoError(t, json.Unmarshal(fields["notice"], &notice))
		assert.Equal(t, tutor.EmptyInputMessage, notice)
		assert.Equal(t, 0, historyLen(t, fields))
	}

	assert.Equal(t, 0, provider.CallCount())
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestChat_BackendFailureNotice(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	c := newClient(t, provider)

	rec, fields := c.do(c.handler.Chat, http.MethodPost,
		`{"message":"case","preferences":{"clinical_reasoning":1,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var notice string
	require.NoError(t, json.Unmarshal(fields["notice"], &notice))
	assert.Equal(t, tutor.GenericErrorMessage, notice)
	assert.Equal(t, 2, historyLen(t, fields))
}

func TestChat_OmittedPreferencesKeepCurrent(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Text: "first"},
		llm.MockResponse{Text: "second"},
	)
	c := newClient(t, provider)

	c.do(c.handler.Chat, http.MethodPost,
		`{"message":"case","preferences":{"clinical_reasoning":1.8,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)
	c.do(c.handler.Chat, http.MethodPost, `{"message":"follow-up"}`)

	_, fields := c.do(c.handler.GetHistory, http.MethodGet, "")
	var prefs tutor.Preferences
	require.NoError(t, json.Unmarshal(fields["preferences"], &prefs))
	assert.Equal(t, 1.8, prefs.ClinicalReasoning)
}

func TestChat_RejectsUnknownFields(t *testing.T) {
	c := newClient(t, llm.NewMockProvider())

	rec, _ := c.do(c.handler.Chat, http.MethodPost, `{"message":"x","bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePreferences_ClampsOutOfRange(t *testing.T) {
	c := newClient(t, llm.NewMockProvider())

	rec, fields := c.do(c.handler.UpdatePreferences, http.MethodPut,
		`{"preferences":{"clinical_reasoning":9.0,"medical_knowledge":0.0,"presentation_skills":1.2,"differential_building":1.0}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var prefs tutor.Preferences
	require.NoError(t, json.Unmarshal(fields["preferences"], &prefs))
	assert.Equal(t, tutor.MaxWeight, prefs.ClinicalReasoning)
	assert.Equal(t, tutor.MinWeight, prefs.MedicalKnowledge)
	assert.Equal(t, 1.2, prefs.PresentationSkills)
}

func TestRetryLast_ReturnsUserMessage(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Text: "feedback"})
	c := newClient(t, provider)

	c.do(c.handler.Chat, http.MethodPost,
		`{"message":"my case","preferences":{"clinical_reasoning":1,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)

	_, fields := c.do(c.handler.RetryLast, http.MethodPost, "")
	var msg string
	require.NoError(t, json.Unmarshal(fields["message"], &msg))
	assert.Equal(t, "my case", msg)
	assert.Equal(t, 0, historyLen(t, fields))

	// Retry on an already-empty history is a no-op returning empty content.
	_, fields = c.do(c.handler.RetryLast, http.MethodPost, "")
	require.NoError(t, json.Unmarshal(fields["message"], &msg))
	assert.Equal(t, "", msg)
}

func TestClearSession(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockResponse{Text: "feedback"})
	c := newClient(t, provider)

	c.do(c.handler.Chat, http.MethodPost,
		`{"message":"my case","preferences":{"clinical_reasoning":1,"medical_knowledge":1,"presentation_skills":1,"differential_building":1}}`)

	_, fields := c.do(c.handler.ClearSession, http.MethodPost, "")
	assert.Equal(t, 0, historyLen(t, fields))

	_, fields = c.do(c.handler.GetHistory, http.MethodGet, "")
	assert.Equal(t, 0, historyLen(t, fields))
}

func TestSessionCookie_IsSetOnce(t *testing.T) {
	c := newClient(t, llm.NewMockProvider())

	rec, _ := c.do(c.handler.GetHistory, http.MethodGet, "")
	require.NotEmpty(t, rec.Result().Cookies())
	first := rec.Result().Cookies()[0].Value

	rec2, _ := c.do(c.handler.GetHistory, http.MethodGet, "")
	assert.Empty(t, rec2.Result().Cookies())
	assert.NotEmpty(t, first)
}

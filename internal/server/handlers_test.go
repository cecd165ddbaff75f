package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dvcard/internal/card"
	"dvcard/internal/prefs"
	"dvcard/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dvcard.db")

	st, err := store.Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	pr, err := prefs.Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { pr.Close() })

	ts := httptest.NewServer(New(st, pr, zap.NewNop()).Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func createCard(t *testing.T, ts *httptest.Server, c card.Card) card.Card {
	t.Helper()
	body, err := json.Marshal(c)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/cards", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created card.Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotZero(t, created.ID)
	return created
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var h HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.DB)
}

func TestCardLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	created := createCard(t, ts, card.Card{
		FamilyName: "Mustermann",
		GivenName:  "Max",
		Company:    "Acme",
	})

	resp, err := http.Get(fmt.Sprintf("%s/api/cards/%d", ts.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got card.Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Mustermann", got.FamilyName)

	got.Company = "Example GmbH"
	body, _ := json.Marshal(got)
	req, _ := http.NewRequest(http.MethodPut,
		fmt.Sprintf("%s/api/cards/%d", ts.URL, created.ID), bytes.NewReader(body))
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var updated card.Card
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&updated))
	assert.Equal(t, "Example GmbH", updated.Company)

	req, _ = http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/cards/%d", ts.URL, created.ID), nil)
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp3.StatusCode)
}

func TestGetMissingCardReturns404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/cards/4711")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListCards(t *testing.T) {
	ts, st := newTestServer(t)
	createCard(t, ts, card.Card{FamilyName: "Mustermann"})

	// wait for the store to settle (auto-create may still be in flight)
	require.Eventually(t, func() bool {
		n, err := st.Count(context.Background())
		return err == nil && n >= 1
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(ts.URL + "/api/cards")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cards []card.Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cards))
	found := false
	for _, c := range cards {
		if c.FamilyName == "Mustermann" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestVCardEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createCard(t, ts, card.Card{
		FamilyName: "Mustermann",
		GivenName:  "Max",
		Position:   "Developer",
		Company:    "Acme",
		Phone:      "+49 123",
		Email:      "max@acme.com",
	})

	resp, err := http.Get(fmt.Sprintf("%s/api/cards/%d/vcard", ts.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vcard; charset=utf-8", resp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	body := buf.String()

	assert.True(t, strings.HasPrefix(body, "BEGIN:VCARD\nVERSION:3.0\n"))
	assert.Contains(t, body, "N:Mustermann;Max;;;")
	assert.Contains(t, body, "FN:Max Mustermann")
	assert.Contains(t, body, "TEL;TYPE=WORK:+49 123")
	assert.True(t, strings.HasSuffix(body, "END:VCARD"))
}

func TestQREndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createCard(t, ts, card.Card{FamilyName: "Mustermann"})

	resp, err := http.Get(fmt.Sprintf("%s/api/cards/%d/qr.png?size=128", ts.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestQREndpointRejectsBadSize(t *testing.T) {
	ts, _ := newTestServer(t)
	created := createCard(t, ts, card.Card{FamilyName: "Mustermann"})

	resp, err := http.Get(fmt.Sprintf("%s/api/cards/%d/qr.png?size=nope", ts.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLanguageSettings(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/settings/language")
	require.NoError(t, err)
	var lang LanguageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lang))
	resp.Body.Close()
	assert.Equal(t, "de", lang.Language)
	assert.Equal(t, "EN", lang.SwitchLabel)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings/language",
		strings.NewReader(`{"language":"en"}`))
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&lang))
	resp2.Body.Close()
	assert.Equal(t, "en", lang.Language)
	assert.Equal(t, "DE", lang.SwitchLabel)

	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/settings/language",
		strings.NewReader(`{"language":"xx"}`))
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

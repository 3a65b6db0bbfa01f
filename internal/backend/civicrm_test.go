package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CiviCRM {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCiviCRM(model.BackendConfig{
		URL:       server.URL,
		SiteKey:   "site",
		APIKey:    "secret",
		Timeout:   5 * time.Second,
		UserAgent: "crmimport-test",
	}, NewLimiter(1000, 10))
}

func TestCiviCRM_CreateSendsForm(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Contact", r.PostForm.Get("entity"))
		assert.Equal(t, "create", r.PostForm.Get("action"))
		assert.Equal(t, "secret", r.PostForm.Get("api_key"))
		assert.Equal(t, "site", r.PostForm.Get("key"))
		assert.Equal(t, "crmimport-test", r.UserAgent())
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("json")), &got))

		_, _ = fmt.Fprint(w, `{"is_error":0,"count":1,"id":42,"values":[{"id":"42"}]}`)
	})

	res, err := client.Create(context.Background(), payload.EntityContact, payload.Payload{"contact_type": "Individual"})
	require.NoError(t, err)
	assert.Equal(t, 42, res.ID)
	assert.Equal(t, "Individual", got["contact_type"])
	assert.EqualValues(t, 1, got["sequential"])
}

func TestCiviCRM_CreateWithoutID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"is_error":0,"count":0,"values":[]}`)
	})

	_, err := client.Create(context.Background(), payload.EntityEmail, payload.Payload{"email": "a@b.de"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoID))
}

func TestCiviCRM_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"is_error":1,"error_message":"Mandatory key(s) missing","error_code":"mandatory_missing"}`)
	})

	_, err := client.Create(context.Background(), payload.EntityAddress, payload.Payload{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Mandatory key(s) missing", apiErr.Message)
	assert.Equal(t, "mandatory_missing", apiErr.Code)
	assert.Equal(t, payload.EntityAddress, apiErr.Entity)
}

func TestCiviCRM_FindKeyedValues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"is_error":0,"count":2,"values":{"7":{"id":"7","contact_id":"3"},"5":{"id":"5","contact_id":"9"}}}`)
	})

	res, err := client.Find(context.Background(), payload.EntityEmail, payload.Payload{"email": "a@b.de"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	first, ok := res.First()
	require.True(t, ok)
	id, ok := first.Int("contact_id")
	require.True(t, ok)
	assert.Equal(t, 9, id)
}

func TestCiviCRM_HTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Find(context.Background(), payload.EntityContact, payload.Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCiviCRM_Observer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"is_error":0,"count":0,"values":[]}`)
	})

	var calls []string
	client.SetObserver(func(entity payload.Entity, action string, d time.Duration, err error) {
		calls = append(calls, string(entity)+"."+action)
	})

	_, err := client.Find(context.Background(), payload.EntityCountry, payload.Payload{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Country.get"}, calls)
}

func TestRecord_Int(t *testing.T) {
	r := Record{"a": json.Number("12"), "b": "13", "c": 14.0, "d": "x"}
	for key, want := range map[string]int{"a": 12, "b": 13, "c": 14} {
		got, ok := r.Int(key)
		if !ok || got != want {
			t.Errorf("Int(%q) = %d, %v; want %d", key, got, ok, want)
		}
	}
	if _, ok := r.Int("d"); ok {
		t.Error("expected non-numeric string to fail")
	}
}

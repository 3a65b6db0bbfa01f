package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crmimport/internal/backend/backendtest"
	"github.com/ppiankov/crmimport/internal/cache"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
	"github.com/ppiankov/crmimport/internal/reference"
	"github.com/ppiankov/crmimport/internal/rules"
)

func TestRunner_Totals(t *testing.T) {
	fake := backendtest.New()
	fake.Seed(payload.EntityOptionValue, map[string]any{"option_group_id": 6, "name": "Herr", "value": "2"})
	fake.Seed(payload.EntityContact, map[string]any{"external_identifier": "3"})
	fake.CreateErr[payload.EntityPhone] = errors.New("invalid number")

	rows := []model.Row{
		{Line: 2, ID: "1", Gender: "Herr", FirstName: "Max", LastName: "Muster"},
		{Line: 3, ID: "2", FirstName: "Eva", LastName: "Lang", PhoneHome: "x"},
		{Line: 4, ID: "3", FirstName: "Alt", LastName: "Bekannt"},
		{Line: 5, ID: "4", FirstName: "Nur"},
		{Line: 6, ID: "2246", FirstName: "Manuell", LastName: "Anlegen"},
	}

	r := NewRunner(fake, rules.Press(), nil, Options{SkipIDs: []string{"2246"}})
	var report bytes.Buffer
	r.SetReport(&report)
	m := NewMetrics()
	r.SetMetrics(m)

	totals, err := r.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, Totals{Rows: 5, Created: 1, Partial: 1, Skipped: 2, Excluded: 1}, totals)

	// seeded prefix is reused
	assert.Zero(t, fake.CountCalls("create", payload.EntityOptionValue))

	var outcomes []Outcome
	scanner := bufio.NewScanner(&report)
	for scanner.Scan() {
		var out Outcome
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &out))
		assert.Equal(t, r.RunID(), out.RunID)
		outcomes = append(outcomes, out)
	}
	require.Len(t, outcomes, 5)
	assert.Equal(t, StatusCreated, outcomes[0].Status)
	assert.NotZero(t, outcomes[0].ContactID)
	assert.Equal(t, StatusPartial, outcomes[1].Status)
	assert.Len(t, outcomes[1].Errors, 1)
	assert.Equal(t, StatusSkipped, outcomes[2].Status)
	assert.Equal(t, StatusExcluded, outcomes[4].Status)
	assert.Equal(t, 6, outcomes[4].Line)

	path := filepath.Join(t.TempDir(), "crmimport.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `crmimport_rows_total{outcome="created"} 1`)
}

func TestRunner_RejectedRowDoesNotStopRun(t *testing.T) {
	fake := backendtest.New()
	fake.FailWhen = func(e payload.Entity, p payload.Payload) error {
		if p["external_identifier"] == "1" {
			return errors.New("duplicate key")
		}
		return nil
	}

	rows := []model.Row{
		{ID: "1", FirstName: "Max", LastName: "Muster"},
		{ID: "2", FirstName: "Eva", LastName: "Lang"},
	}
	totals, err := NewRunner(fake, rules.Press(), nil, Options{}).Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Rejected)
	assert.Equal(t, 1, totals.Created)
}

func TestRunner_SeedFailureAborts(t *testing.T) {
	fake := backendtest.New()
	fake.FindErr[payload.EntityOptionValue] = errors.New("unauthorized")

	_, err := NewRunner(fake, rules.Press(), nil, Options{}).Run(context.Background(), []model.Row{{ID: "1"}})
	require.Error(t, err)
	assert.Zero(t, fake.CountCalls("create", payload.EntityContact))
}

func TestRunner_Cancelled(t *testing.T) {
	fake := backendtest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// cancellation is only checked between rows, after reference data loads
	totals, err := NewRunner(fake, rules.Press(), nil, Options{}).Run(ctx, []model.Row{{ID: "1", FirstName: "A", LastName: "B"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, totals.Rows)
}

func TestRunner_UsesCountryReference(t *testing.T) {
	fake := backendtest.New()
	fake.Seed(payload.EntityCountry, map[string]any{"id": 1076, "iso_code": "FR"})

	provider := reference.NewProvider(fake, cache.NewMemoryCache(time.Hour, time.Minute), "https://crm.example.org", time.Hour)
	r := NewRunner(fake, rules.Altruja(), provider, Options{GroupID: 4, Tags: []int{9}})

	rows := []model.Row{{FirstName: "Luc", LastName: "Martin", Email: "luc@example.fr", City: "Lyon", Country: "FR"}}
	totals, err := r.Run(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Created)

	addresses := fake.Created(payload.EntityAddress)
	require.Len(t, addresses, 1)
	assert.Equal(t, 1076, addresses[0]["country_id"])

	groups := fake.Created(payload.EntityGroupContact)
	require.Len(t, groups, 1)
	assert.Equal(t, 4, groups[0]["group_id"])

	tags := fake.Created(payload.EntityEntityTag)
	require.Len(t, tags, 1)
	assert.Equal(t, 9, tags[0]["tag_id"])
}

func TestOutcome_JSON(t *testing.T) {
	out := outcomeOf("run", Account{Row: model.Row{ID: "9", Line: 10}}, Skipped{Reason: "contact 5 exists"})
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"status":"skipped"`))
	assert.True(t, strings.Contains(string(data), `"reason":"contact 5 exists"`))
}

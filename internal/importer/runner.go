package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/backend"
	"github.com/ppiankov/crmimport/internal/dedup"
	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/reference"
	"github.com/ppiankov/crmimport/internal/rules"
)

// Outcome is the per-row record written to the report
type Outcome struct {
	RunID        string              `json:"run_id"`
	Line         int                 `json:"line,omitempty"`
	ExternalID   string              `json:"external_id,omitempty"`
	Shape        string              `json:"shape"`
	Status       Status              `json:"status"`
	ContactID    int                 `json:"contact_id,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	IdentityKeys []dedup.IdentityKey `json:"identity_keys,omitempty"`
	Errors       []string            `json:"errors,omitempty"`
}

// Totals summarizes a run
type Totals struct {
	Rows     int
	Created  int
	Partial  int
	Skipped  int
	Rejected int
	Excluded int
}

func (t *Totals) add(s Status) {
	switch s {
	case StatusCreated:
		t.Created++
	case StatusPartial:
		t.Partial++
	case StatusSkipped:
		t.Skipped++
	case StatusRejected:
		t.Rejected++
	case StatusExcluded:
		t.Excluded++
	}
}

// Options configures a run
type Options struct {
	GroupID int
	Tags    []int
	SkipIDs []string
}

// Runner imports rows one at a time, in input order
type Runner struct {
	ruleSet      rules.RuleSet
	opts         Options
	skip         map[string]bool
	provider     *reference.Provider
	honorifics   *reference.Honorifics
	orchestrator *Orchestrator
	metrics      *Metrics
	report       *json.Encoder
	runID        string
	countries    reference.Countries
}

// NewRunner wires a run. provider may be nil; countries are then only
// resolved by name.
func NewRunner(client backend.Client, rs rules.RuleSet, provider *reference.Provider, opts Options) *Runner {
	skip := make(map[string]bool, len(opts.SkipIDs))
	for _, id := range opts.SkipIDs {
		skip[id] = true
	}
	honorifics := reference.NewHonorifics(client)

	return &Runner{
		ruleSet:      rs,
		opts:         opts,
		skip:         skip,
		provider:     provider,
		honorifics:   honorifics,
		orchestrator: NewOrchestrator(client, honorifics),
		runID:        uuid.NewString(),
	}
}

// SetReport streams one JSON line per row to w
func (r *Runner) SetReport(w io.Writer) {
	r.report = json.NewEncoder(w)
}

// SetMetrics records row outcomes into m
func (r *Runner) SetMetrics(m *Metrics) {
	r.metrics = m
}

// RunID identifies this run in logs and the report
func (r *Runner) RunID() string {
	return r.runID
}

// prepare loads the reference tables every row depends on
func (r *Runner) prepare(ctx context.Context) error {
	if err := r.honorifics.Seed(ctx); err != nil {
		return err
	}

	if r.provider != nil {
		countries, err := r.provider.Countries(ctx)
		if err != nil {
			logrus.WithError(err).Warn("country list unavailable, ISO codes stay unresolved")
		}
		r.countries = countries
	}
	return nil
}

// Run imports rows. A failing row never stops the run; only a cancelled
// context or unavailable reference data does.
func (r *Runner) Run(ctx context.Context, rows []model.Row) (Totals, error) {
	log := logrus.WithFields(logrus.Fields{"run_id": r.runID, "ruleset": r.ruleSet.Name})

	var totals Totals
	if err := r.prepare(ctx); err != nil {
		return totals, fmt.Errorf("load reference data: %w", err)
	}

	buildOpts := rules.Options{GroupID: r.opts.GroupID, Tags: r.opts.Tags, Countries: r.countries}
	log.WithField("rows", len(rows)).Info("import started")

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return totals, err
		}
		totals.Rows++

		if r.skip[row.Get(model.FieldID)] {
			out := Outcome{RunID: r.runID, Line: row.Line, ExternalID: row.ExternalID(), Shape: "-", Status: StatusExcluded, Reason: "id excluded by configuration"}
			totals.add(out.Status)
			r.record(out)
			continue
		}

		acc := Prepare(row, r.ruleSet, buildOpts)
		res := r.orchestrator.DoImport(ctx, acc)

		out := outcomeOf(r.runID, acc, res)
		totals.add(out.Status)
		r.record(out)

		if out.Status == StatusRejected {
			entry := log.WithFields(logrus.Fields{"line": row.Line, "row_id": out.ExternalID})
			for _, err := range Errors(res) {
				if IsParentFailure(err) {
					entry = entry.WithField("parent", true)
				}
				entry.WithError(err).Error("row rejected")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"created":  totals.Created,
		"partial":  totals.Partial,
		"skipped":  totals.Skipped,
		"rejected": totals.Rejected,
		"excluded": totals.Excluded,
	}).Info("import finished")
	return totals, nil
}

func (r *Runner) record(out Outcome) {
	r.metrics.ObserveRow(out.Status)
	if r.report == nil {
		return
	}
	if err := r.report.Encode(out); err != nil {
		logrus.WithError(err).Warn("could not write report line")
	}
}

func outcomeOf(runID string, acc Account, res Result) Outcome {
	out := Outcome{
		RunID:      runID,
		Line:       acc.Row.Line,
		ExternalID: acc.Row.ExternalID(),
		Shape:      acc.Shape.String(),
		Status:     res.Status(),
	}
	switch v := res.(type) {
	case Created:
		out.ContactID = v.ContactID
	case Skipped:
		out.Reason = v.Reason
	case Rejected:
		out.IdentityKeys = v.IdentityKeys
	}
	for _, err := range Errors(res) {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

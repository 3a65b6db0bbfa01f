package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/crmimport/internal/model"
	"github.com/ppiankov/crmimport/internal/payload"
)

const (
	actionGet    = "get"
	actionCreate = "create"

	maxResponseBytes = 4 << 20
)

// Observer is notified after every backend call
type Observer func(entity payload.Entity, action string, d time.Duration, err error)

// CiviCRM is a Client for the CiviCRM API v3 REST endpoint
type CiviCRM struct {
	endpoint   string
	siteKey    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *Limiter
	observer   Observer
}

// NewCiviCRM creates a client for the endpoint in cfg. limiter may be nil.
func NewCiviCRM(cfg model.BackendConfig, limiter *Limiter) *CiviCRM {
	return &CiviCRM{
		endpoint:  cfg.URL,
		siteKey:   cfg.SiteKey,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(cfg),
			},
		},
		limiter: limiter,
	}
}

// SetObserver installs a hook called after every request
func (c *CiviCRM) SetObserver(o Observer) {
	c.observer = o
}

// Find runs Entity.get. Results are always requested as a list.
func (c *CiviCRM) Find(ctx context.Context, entity payload.Entity, query payload.Payload) (FindResult, error) {
	body, err := c.call(ctx, entity, actionGet, query)
	if err != nil {
		return FindResult{}, err
	}

	values := body.records()
	count, ok := toInt(body["count"])
	if !ok {
		count = len(values)
	}
	return FindResult{Count: count, Values: values}, nil
}

// Create runs Entity.create and returns the new id
func (c *CiviCRM) Create(ctx context.Context, entity payload.Entity, p payload.Payload) (CreateResult, error) {
	body, err := c.call(ctx, entity, actionCreate, p)
	if err != nil {
		return CreateResult{}, err
	}

	values := body.records()
	id, ok := toInt(body["id"])
	if !ok && len(values) > 0 {
		id, ok = values[0].Int("id")
	}
	if !ok || id <= 0 {
		return CreateResult{Values: values}, fmt.Errorf("%s.%s: %w", entity, actionCreate, ErrNoID)
	}
	return CreateResult{ID: id, Values: values}, nil
}

type response map[string]any

// records normalizes "values", which is a list with sequential=1 and an
// id-keyed object otherwise.
func (r response) records() []Record {
	switch v := r["values"].(type) {
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Record, 0, len(v))
		for _, k := range keys {
			if m, ok := v[k].(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	}
	return nil
}

func (c *CiviCRM) call(ctx context.Context, entity payload.Entity, action string, params payload.Payload) (resp response, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		if c.observer != nil {
			c.observer(entity, action, d, err)
		}
		entry := logrus.WithFields(logrus.Fields{
			"entity":   entity,
			"action":   action,
			"duration": d.Round(time.Millisecond),
		})
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("backend call")
	}()

	if err := c.limiter.Wait(ctx, entity); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	p := params.Clone()
	p["sequential"] = 1
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s.%s params: %w", entity, action, err)
	}

	form := url.Values{}
	form.Set("entity", string(entity))
	form.Set("action", action)
	form.Set("json", string(encoded))
	form.Set("api_key", c.apiKey)
	form.Set("key", c.siteKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", entity, action, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s.%s: unexpected status: %d", entity, action, httpResp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%s.%s: decode response: %w", entity, action, err)
	}

	if isErr, _ := toInt(resp["is_error"]); isErr != 0 {
		apiErr := &APIError{Entity: entity, Action: action}
		apiErr.Message = Record(resp).String("error_message")
		apiErr.Code = Record(resp).String("error_code")
		return nil, apiErr
	}
	return resp, nil
}

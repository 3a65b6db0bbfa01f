package backend

import (
	"net/http"
	"net/url"

	"github.com/ppiankov/crmimport/internal/model"
)

// proxyFunc picks the configured proxy per scheme, falling back to the
// environment when none is set.
func proxyFunc(cfg model.BackendConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && cfg.HTTPSProxy != "" {
			return url.Parse(cfg.HTTPSProxy)
		}
		if cfg.HTTPProxy != "" {
			return url.Parse(cfg.HTTPProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

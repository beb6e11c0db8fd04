package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gobbyhq/gobby/pkg/security"
)

// Result represents the output of an HTTP operation.
type Result struct {
	Response interface{}
	Metadata map[string]interface{}
}

// HTTPAction implements the action interface for outbound HTTP requests,
// validating every request and every redirect hop against its security
// config before a socket is opened.
type HTTPAction struct {
	config   *Config
	security *security.HTTPSecurityConfig
	dnsCache *security.DNSCache
	client   *http.Client
}

// parseJSONString is replaced by parseJSONStringImpl in init() so the
// security-sensitive request path never depends on package init order
// for its own correctness.
var parseJSONString func(string, *interface{}) error

// New creates a new HTTP action instance.
func New(config *Config) (*HTTPAction, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxResponseSize == 0 {
		config.MaxResponseSize = 10 * 1024 * 1024
	}
	if config.MaxRedirects == 0 {
		config.MaxRedirects = 10
	}

	secConfig := config.SecurityConfig
	if secConfig == nil {
		secConfig = security.DefaultHTTPSecurityConfig()
		secConfig.AllowedHosts = config.AllowedHosts
		secConfig.DenyPrivateIPs = config.BlockPrivateIPs
		secConfig.MaxRedirects = config.MaxRedirects
		if config.RequireHTTPS {
			secConfig.AllowedSchemes = []string{"https"}
		} else {
			secConfig.AllowedSchemes = []string{"http", "https"}
		}
	}

	dnsCache := security.NewDNSCache(config.Timeout)

	client := &http.Client{
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= secConfig.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", secConfig.MaxRedirects)
			}
			if err := validateOutboundURL(req.URL.String(), secConfig, config.DNSMonitor); err != nil {
				return err
			}
			return nil
		},
	}
	if transport, ok := client.Transport.(*http.Transport); ok && transport != nil {
		transport.DialContext = secConfig.SecureDialContext(dnsCache)
	} else {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = secConfig.SecureDialContext(dnsCache)
		client.Transport = transport
	}

	return &HTTPAction{
		config:   config,
		security: secConfig,
		dnsCache: dnsCache,
		client:   client,
	}, nil
}

// Execute dispatches an HTTP operation by name.
func (c *HTTPAction) Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error) {
	switch operation {
	case "get":
		return c.get(ctx, inputs)
	case "post":
		return c.post(ctx, inputs)
	case "put":
		return c.put(ctx, inputs)
	case "patch":
		return c.patch(ctx, inputs)
	case "delete":
		return c.delete(ctx, inputs)
	case "request":
		return c.request(ctx, inputs)
	default:
		return nil, fmt.Errorf("unknown http operation: %s", operation)
	}
}

// validateOutboundURL runs the security and DNS-exfiltration checks shared
// by the initial request and every redirect hop it follows.
func validateOutboundURL(rawURL string, secConfig *security.HTTPSecurityConfig, monitor *security.DNSQueryMonitor) error {
	if err := secConfig.ValidateURL(rawURL); err != nil {
		return &SecurityBlockedError{URL: rawURL, Reason: err.Error()}
	}
	if monitor != nil {
		host := rawURL
		if u, err := parseHostFromURL(rawURL); err == nil {
			host = u
		}
		if err := monitor.ValidateQuery(host); err != nil {
			return &SecurityBlockedError{URL: rawURL, Reason: err.Error()}
		}
	}
	return nil
}

func parseHostFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

// validateAndPrepareRequest validates the target URL and method against
// the security config, then builds the *http.Request with caller headers
// applied on top of any method-specific defaults.
func (c *HTTPAction) validateAndPrepareRequest(ctx context.Context, method, rawURL string, body io.Reader, inputs map[string]interface{}) (*http.Request, error) {
	if err := validateOutboundURL(rawURL, c.security, c.config.DNSMonitor); err != nil {
		return nil, err
	}
	if err := c.security.ValidateMethod(method); err != nil {
		return nil, &SecurityBlockedError{URL: rawURL, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}

	if rawHeaders, ok := inputs["headers"].(map[string]interface{}); ok {
		for k, v := range rawHeaders {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}
	if err := c.security.ValidateHeaders(req.Header); err != nil {
		return nil, &SecurityBlockedError{URL: rawURL, Reason: err.Error()}
	}

	return req, nil
}

// executeRequest runs the prepared request, enforces the response size
// cap, and shapes the result the way every operation above expects.
func (c *HTTPAction) executeRequest(req *http.Request, inputs map[string]interface{}) (*Result, error) {
	start := time.Now()

	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &TimeoutError{URL: req.URL.String(), Timeout: c.config.Timeout.String()}
		}
		if secErr, ok := unwrapSecurityBlocked(err); ok {
			return nil, secErr
		}
		return nil, &NetworkError{URL: req.URL.String(), Reason: err.Error()}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.config.MaxResponseSize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, &NetworkError{URL: req.URL.String(), Reason: err.Error()}
	}
	if int64(len(raw)) > c.config.MaxResponseSize {
		return nil, &NetworkError{URL: req.URL.String(), Reason: "response exceeds max size"}
	}

	response := map[string]interface{}{
		"success":     resp.StatusCode >= 200 && resp.StatusCode < 300,
		"status_code": resp.StatusCode,
	}

	parseJSON, _ := inputs["parse_json"].(bool)
	if parseJSON && len(raw) > 0 {
		var parsed interface{}
		if err := parseJSONString(string(raw), &parsed); err != nil {
			response["body"] = string(raw)
			response["parse_error"] = err.Error()
		} else {
			response["body"] = parsed
		}
	} else {
		response["body"] = string(raw)
	}

	if resp.StatusCode >= 400 {
		response["error"] = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	return &Result{
		Response: response,
		Metadata: map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"url":         req.URL.String(),
		},
	}, nil
}

func unwrapSecurityBlocked(err error) (*SecurityBlockedError, bool) {
	if strings.Contains(err.Error(), "security policy blocked") {
		return &SecurityBlockedError{Reason: err.Error()}, true
	}
	return nil, false
}

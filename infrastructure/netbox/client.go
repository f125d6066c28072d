// Package netbox implements the Inventory port against the NetBox REST API.
package netbox

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/logger"
)

var log = logger.GetLogger("netbox")

// ErrNotFound is returned when a lookup matches no NetBox object.
var ErrNotFound = errors.New("not found in NetBox")

const (
	defaultPageSize = 250
	defaultTimeout  = 60 * time.Second
	maxRetryElapsed = 30 * time.Second
)

// Config carries the NetBox connection settings.
type Config struct {
	URL       string
	Token     string
	VerifySSL bool
	PageSize  int
	Timeout   time.Duration

	// Observer, when set, is invoked for every completed HTTP request.
	Observer func(method string, status int, duration time.Duration)
}

// Client is a minimal NetBox REST client: token auth, transparent
// pagination and bulk interface PATCH.
type Client struct {
	apiURL   string
	token    string
	http     *http.Client
	pageSize int
	observer func(method string, status int, duration time.Duration)
}

// New creates a NetBox client from the given configuration.
func New(cfg Config) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		apiURL:   strings.TrimRight(cfg.URL, "/") + "/api",
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout, Transport: transport},
		pageSize: pageSize,
		observer: cfg.Observer,
	}
}

// statusError is an HTTP error response; only 5xx are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("NetBox returned %d: %s", e.code, e.body)
}

func (c *Client) endpointURL(endpoint string) string {
	return c.apiURL + "/" + strings.Trim(endpoint, "/") + "/"
}

func (c *Client) do(method, rawURL string, body []byte) ([]byte, error) {
	var out []byte
	op := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequest(method, rawURL, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		started := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if c.observer != nil {
				c.observer(method, 0, time.Since(started))
			}
			return fmt.Errorf("request %s %s: %w", method, rawURL, err)
		}
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		if c.observer != nil {
			c.observer(method, resp.StatusCode, time.Since(started))
		}
		if err != nil {
			return fmt.Errorf("read response from %s: %w", rawURL, err)
		}
		if resp.StatusCode >= 500 {
			return &statusError{code: resp.StatusCode, body: truncate(payload)}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&statusError{code: resp.StatusCode, body: truncate(payload)})
		}
		out = payload
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxRetryElapsed
	notify := func(err error, wait time.Duration) {
		log.Warnf("Retrying %s %s in %s: %v", method, rawURL, wait.Round(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return out, nil
}

type listEnvelope struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// list fetches every page of a list endpoint and concatenates the results.
func (c *Client) list(endpoint string, params url.Values) ([]json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(c.pageSize))
	next := c.endpointURL(endpoint) + "?" + params.Encode()

	var results []json.RawMessage
	for next != "" {
		payload, err := c.do(http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var envelope listEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		results = append(results, envelope.Results...)
		if envelope.Next == nil {
			break
		}
		log.Debugf("Fetching next page of %s", endpoint)
		next = *envelope.Next
	}
	return results, nil
}

// GetDevice resolves a device by exact name.
func (c *Client) GetDevice(name string) (entities.Device, error) {
	params := url.Values{}
	params.Set("name", name)
	results, err := c.list("dcim/devices", params)
	if err != nil {
		return entities.Device{}, err
	}
	if len(results) == 0 {
		return entities.Device{}, fmt.Errorf("device %q: %w", name, ErrNotFound)
	}
	var record deviceRecord
	if err := json.Unmarshal(results[0], &record); err != nil {
		return entities.Device{}, fmt.Errorf("decode device %q: %w", name, err)
	}
	return record.toEntity(), nil
}

// ListSiteDevices returns every device registered at a site.
func (c *Client) ListSiteDevices(siteSlug string) ([]entities.Device, error) {
	params := url.Values{}
	params.Set("site", siteSlug)
	results, err := c.list("dcim/devices", params)
	if err != nil {
		return nil, err
	}
	devices := make([]entities.Device, 0, len(results))
	for _, raw := range results {
		var record deviceRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode device list: %w", err)
		}
		devices = append(devices, record.toEntity())
	}
	return devices, nil
}

// ListInterfaces returns the interfaces of a device.
func (c *Client) ListInterfaces(deviceID int) ([]entities.NetInterface, error) {
	params := url.Values{}
	params.Set("device_id", strconv.Itoa(deviceID))
	results, err := c.list("dcim/interfaces", params)
	if err != nil {
		return nil, err
	}
	ifaces := make([]entities.NetInterface, 0, len(results))
	for _, raw := range results {
		var record interfaceRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode interface list: %w", err)
		}
		ifaces = append(ifaces, record.toEntity())
	}
	return ifaces, nil
}

// ListVLANs returns the VLANs defined for a site.
func (c *Client) ListVLANs(siteSlug string) ([]entities.VLAN, error) {
	params := url.Values{}
	params.Set("site", siteSlug)
	results, err := c.list("ipam/vlans", params)
	if err != nil {
		return nil, err
	}
	vlans := make([]entities.VLAN, 0, len(results))
	for _, raw := range results {
		var record vlanRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode VLAN list: %w", err)
		}
		vlans = append(vlans, record.toEntity())
	}
	return vlans, nil
}

// BulkUpdateInterfaces pushes all pending interface patches in one request.
func (c *Client) BulkUpdateInterfaces(patches []entities.InterfacePatch) error {
	if len(patches) == 0 {
		return nil
	}
	body, err := json.Marshal(patches)
	if err != nil {
		return fmt.Errorf("encode interface patches: %w", err)
	}
	log.Debugf("Bulk PATCH of %d interfaces", len(patches))
	if _, err := c.do(http.MethodPatch, c.endpointURL("dcim/interfaces"), body); err != nil {
		return fmt.Errorf("bulk interface update: %w", err)
	}
	return nil
}

func truncate(body []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

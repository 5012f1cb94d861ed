package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 5 * time.Second

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h HealthStatus) IsOK() bool {
	return h.Status == "ok"
}

type uploadResponse struct {
	FilePath string `json:"filePath"`
}

// Client talks to the applications REST API. Every call is bounded by its own timeout.
type Client struct {
	baseURL     string
	timeout     time.Duration
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	if maxRequestsPerSecond <= 0 {
		c.rateLimiter = nil
		return
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) List(ctx context.Context) ([]entities.JobRecord, error) {

	body, err := c.sendRequest(ctx, "list", http.MethodGet, "/applications", nil, "")
	if err != nil {
		return nil, err
	}

	var records []entities.JobRecord
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&records); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %w", err)
	}
	if records == nil {
		records = []entities.JobRecord{}
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, id string) (*entities.JobRecord, error) {

	body, err := c.sendRequest(ctx, "get", http.MethodGet, recordPath(id), nil, "")
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record entities.JobRecord
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&record); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %w", err)
	}
	return &record, nil
}

func (c *Client) Create(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	return c.sendRecord(ctx, "create", http.MethodPost, "/applications", record)
}

func (c *Client) Update(ctx context.Context, record entities.JobRecord) (entities.JobRecord, error) {
	return c.sendRecord(ctx, "update", http.MethodPut, recordPath(record.ID), record)
}

// Delete returns false when the server does not know the record.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	_, err := c.sendRequest(ctx, "delete", http.MethodDelete, recordPath(id), nil, "")
	if IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upload sends content as the multipart field "file" and returns the path the server serves it from.
func (c *Client) Upload(ctx context.Context, fileName string, content []byte) (string, error) {

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", errors.Wrap(err, "error creating multipart body")
	}
	if _, err = part.Write(content); err != nil {
		return "", errors.Wrap(err, "error writing multipart body")
	}
	if err = writer.Close(); err != nil {
		return "", errors.Wrap(err, "error closing multipart body")
	}

	body, err := c.sendRequest(ctx, "upload", http.MethodPost, "/upload", buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		return "", err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("error decoding JSON response: %w", err)
	}
	if resp.FilePath == "" {
		return "", errors.New("upload response has no file path")
	}
	return resp.FilePath, nil
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {

	body, err := c.sendRequest(ctx, "health", http.MethodGet, "/health", nil, "")
	if err != nil {
		return HealthStatus{}, err
	}

	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return HealthStatus{}, fmt.Errorf("error decoding JSON response: %w", err)
	}
	return status, nil
}

func (c *Client) sendRecord(ctx context.Context, operation, method, path string,
	record entities.JobRecord) (entities.JobRecord, error) {

	payload, err := json.Marshal(record)
	if err != nil {
		return entities.JobRecord{}, errors.Wrap(err, "error encoding record")
	}

	body, err := c.sendRequest(ctx, operation, method, path, payload, "application/json")
	if err != nil {
		return entities.JobRecord{}, err
	}

	var saved entities.JobRecord
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&saved); err != nil {
		return entities.JobRecord{}, fmt.Errorf("error decoding JSON response: %w", err)
	}
	return saved, nil
}

func (c *Client) sendRequest(ctx context.Context, operation, method, path string,
	payload []byte, contentType string) ([]byte, error) {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}

	timer := prometheus.NewTimer(metrics.RemoteRequestDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(callCtx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *Client) transportError(callCtx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func recordPath(id string) string {
	return "/applications/" + url.PathEscape(id)
}

package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
	"github.com/AquaViinaDev/front-admin/internal/admin/observability"
)

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPOption customises an HTTPService.
type HTTPOption func(*HTTPService)

// WithPageSize sets the page size used by ListAll.
func WithPageSize(size int) HTTPOption {
	return func(s *HTTPService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithMaxPages sets the page ceiling used by ListAll.
func WithMaxPages(max int) HTTPOption {
	return func(s *HTTPService) {
		if max > 0 {
			s.maxPages = max
		}
	}
}

// WithLogger sets the fallback logger used when the request context carries none.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(s *HTTPService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// HTTPService implements Service against the catalog REST backend.
type HTTPService struct {
	base     *url.URL
	client   HTTPClient
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewHTTPService constructs a Service that talks to the catalog backend rooted at baseURL.
func NewHTTPService(baseURL string, client HTTPClient, opts ...HTTPOption) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("products: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("products: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("products: base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	svc := &HTTPService{
		base:     parsed,
		client:   client,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// List fetches one page of products.
func (s *HTTPService) List(ctx context.Context, token string, page, limit int) (env ListEnvelope, err error) {
	ctx, span := observability.StartClientSpan(ctx, "products.List",
		attribute.Int("catalog.page", page),
		attribute.Int("catalog.limit", limit),
	)
	defer func() { observability.EndSpan(span, err) }()

	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	endpoint := "/products"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil, token)
	if err != nil {
		return ListEnvelope{}, err
	}
	resp, err := s.do(req)
	if err != nil {
		return ListEnvelope{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ListEnvelope{}, s.errorFromResponse(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ListEnvelope{}, fmt.Errorf("products: read product list: %w", err)
	}
	return decodeListing(body)
}

// ListAll walks every listing page.
func (s *HTTPService) ListAll(ctx context.Context, token string) (ListEnvelope, error) {
	logger := observability.FromContext(ctx)
	if logger == observability.NoopLogger() && s.logger != nil {
		logger = s.logger
	}
	return AggregatePages(ctx, func(ctx context.Context, page, limit int) (ListEnvelope, error) {
		return s.List(ctx, token, page, limit)
	}, AggregateOptions{PageSize: s.pageSize, MaxPages: s.maxPages, Logger: logger})
}

// Get fetches a single product.
func (s *HTTPService) Get(ctx context.Context, token, id string) (rec *catalog.Record, err error) {
	ctx, span := observability.StartClientSpan(ctx, "products.Get", attribute.String("catalog.product_id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireID(id); err != nil {
		return nil, err
	}
	req, err := s.newRequest(ctx, http.MethodGet, productPath(id), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	default:
		return nil, s.errorFromResponse(resp)
	}

	var payload catalog.Record
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("products: decode product: %w", err)
	}
	return &payload, nil
}

// Create submits a new product.
func (s *HTTPService) Create(ctx context.Context, token string, payload *catalog.Payload) (rec *catalog.Record, err error) {
	ctx, span := observability.StartClientSpan(ctx, "products.Create")
	defer func() { observability.EndSpan(span, err) }()

	req, err := s.newPayloadRequest(ctx, http.MethodPost, "/products", payload, true, token)
	if err != nil {
		return nil, err
	}
	return s.submit(req, "create", "")
}

// Update replaces an existing product. Payloads with files must use multipart.
func (s *HTTPService) Update(ctx context.Context, token, id string, payload *catalog.Payload, multipart bool) (rec *catalog.Record, err error) {
	ctx, span := observability.StartClientSpan(ctx, "products.Update",
		attribute.String("catalog.product_id", id),
		attribute.Bool("catalog.multipart", multipart),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireID(id); err != nil {
		return nil, err
	}
	req, err := s.newPayloadRequest(ctx, http.MethodPut, productPath(id), payload, multipart, token)
	if err != nil {
		return nil, err
	}
	return s.submit(req, "update", id)
}

// Delete removes a product.
func (s *HTTPService) Delete(ctx context.Context, token, id string) (ok bool, err error) {
	ctx, span := observability.StartClientSpan(ctx, "products.Delete", attribute.String("catalog.product_id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireID(id); err != nil {
		return false, err
	}
	req, err := s.newRequest(ctx, http.MethodDelete, productPath(id), nil, token)
	if err != nil {
		return false, err
	}
	resp, err := s.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	case http.StatusNotFound:
		return false, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	default:
		return false, s.errorFromResponse(resp)
	}
}

// submit sends a create or update request. A 404 only means a missing product
// when id names one; otherwise it is reported as a backend error.
func (s *HTTPService) submit(req *http.Request, op, id string) (*catalog.Record, error) {
	resp, err := s.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && id != "" {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.errorFromResponse(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("products: read %s response: %w", op, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &catalog.Record{}, nil
	}
	var payload catalog.Record
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("products: decode %s response: %w", op, err)
	}
	return &payload, nil
}

func decodeListing(body []byte) (ListEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items := []catalog.Record{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return ListEnvelope{}, fmt.Errorf("products: decode product list: %w", err)
		}
		return ListEnvelope{Items: items}, nil
	}
	var env ListEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return ListEnvelope{}, fmt.Errorf("products: decode product list: %w", err)
	}
	return env, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("products: product id is required")
	}
	return nil
}

func productPath(id string) string {
	return path.Join("/products", url.PathEscape(strings.TrimSpace(id)))
}

func (s *HTTPService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("products: request failed: %w", err)
	}
	return resp, nil
}

func (s *HTTPService) newRequest(ctx context.Context, method, endpoint string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("products: build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *HTTPService) newPayloadRequest(ctx context.Context, method, endpoint string, payload *catalog.Payload, multipart bool, token string) (*http.Request, error) {
	if payload == nil {
		return nil, errors.New("products: payload is required")
	}
	var buf bytes.Buffer
	contentType := "application/json"
	if multipart {
		ct, err := payload.WriteMultipart(&buf)
		if err != nil {
			return nil, fmt.Errorf("products: encode payload: %w", err)
		}
		contentType = ct
	} else {
		encoded, err := payload.JSON()
		if err != nil {
			return nil, fmt.Errorf("products: encode payload: %w", err)
		}
		buf.Write(encoded)
	}
	req, err := s.newRequest(ctx, method, endpoint, &buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func (s *HTTPService) resolve(endpoint string) string {
	if endpoint == "" {
		return s.base.String()
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return s.base.String()
	}
	return s.base.ResolveReference(ref).String()
}

func (s *HTTPService) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	type errorPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	var payload errorPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			message := payload.Message
			if message == "" {
				message = payload.Error
			}
			if message != "" {
				code := strings.TrimSpace(payload.Code)
				if code == "" {
					code = strconv.Itoa(resp.StatusCode)
				}
				return &BackendError{Status: resp.StatusCode, Code: code, Message: message}
			}
		}
		return &BackendError{Status: resp.StatusCode, Code: strconv.Itoa(resp.StatusCode), Message: strings.TrimSpace(string(body))}
	}
	return &BackendError{Status: resp.StatusCode, Code: strconv.Itoa(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
}

// BackendError describes a non-success response from the catalog backend.
type BackendError struct {
	Status  int
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("products: backend error (%s): %s", e.Code, e.Message)
}

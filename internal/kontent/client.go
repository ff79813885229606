package kontent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// API is the capability set the migration core consumes. Every call is
// idempotent-safe to retry; the transport underneath retries transient
// failures, the core only interprets success, 404 and domain errors.
type API interface {
	// Environment metadata
	ListCollections(ctx context.Context) ([]Collection, error)
	ListLanguages(ctx context.Context) ([]Language, error)
	ListWorkflows(ctx context.Context) ([]Workflow, error)
	ListTaxonomies(ctx context.Context) ([]TaxonomyGroup, error)
	ListContentTypes(ctx context.Context) ([]ContentType, error)
	ListSnippets(ctx context.Context) ([]Snippet, error)

	// Content items
	ContentItemByCodename(ctx context.Context, codename string) (*ContentItem, error)
	ContentItemByID(ctx context.Context, id string) (*ContentItem, error)
	CreateContentItem(ctx context.Context, draft ContentItemDraft) (*ContentItem, error)
	UpsertContentItem(ctx context.Context, codename string, draft ContentItemDraft) (*ContentItem, error)

	// Language variants
	LanguageVariant(ctx context.Context, itemCodename, languageCodename string) (*LanguageVariant, error)
	UpsertLanguageVariant(ctx context.Context, itemCodename, languageCodename string, data LanguageVariantData) (*LanguageVariant, error)
	PublishVariant(ctx context.Context, itemCodename, languageCodename string) error
	UnpublishVariant(ctx context.Context, itemCodename, languageCodename string) error
	ChangeWorkflowStep(ctx context.Context, itemCodename, languageCodename string, workflow, step ObjectReference) error

	// Assets
	AssetByCodename(ctx context.Context, codename string) (*Asset, error)
	AssetByID(ctx context.Context, id string) (*Asset, error)
	CreateAsset(ctx context.Context, draft AssetDraft) (*Asset, error)
	UpsertAsset(ctx context.Context, codename string, draft AssetDraft) (*Asset, error)
	UploadBinaryFile(ctx context.Context, filename, contentType string, data []byte) (ObjectReference, error)
	DownloadBinary(ctx context.Context, url string) ([]byte, error)
}

// ClientConfig holds the configuration for one environment connection.
type ClientConfig struct {
	// EnvironmentID is the environment UUID.
	EnvironmentID string
	// APIKey is the Management API key.
	APIKey string
	// BaseURL overrides the default Management API endpoint. Used by tests.
	BaseURL string
}

const defaultBaseURL = "https://manage.kontent.ai/v2"

// Client implements API over HTTP with a retrying transport.
type Client struct {
	http    *retryablehttp.Client
	plain   *http.Client
	baseURL string
	cfg     ClientConfig
}

// NewClient creates a Management API client for one environment.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.EnvironmentID == "" {
		return nil, fmt.Errorf("environment ID is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("management API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	rc := retryablehttp.NewClient()
	rc.RetryMax = 5
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = &retryLogger{logger: logger}

	return &Client{
		http:    rc,
		plain:   &http.Client{Timeout: 60 * time.Second},
		baseURL: baseURL,
		cfg:     cfg,
	}, nil
}

// retryLogger adapts slog to retryablehttp's leveled logger.
type retryLogger struct {
	logger *slog.Logger
}

func (l *retryLogger) Error(msg string, kv ...any) { l.logger.Error(msg, kv...) }
func (l *retryLogger) Info(msg string, kv ...any)  { l.logger.Info(msg, kv...) }
func (l *retryLogger) Debug(msg string, kv ...any) { l.logger.Debug(msg, kv...) }
func (l *retryLogger) Warn(msg string, kv ...any)  { l.logger.Warn(msg, kv...) }

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/projects/%s%s", c.baseURL, c.cfg.EnvironmentID, path)
}

// do performs one API call and decodes the response body into out (unless
// out is nil). Non-2xx outcomes become APIError.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	return c.doRaw(ctx, method, path, payload, "application/json", out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, payload any, contentType string, out any) error {
	var body io.Reader
	if payload != nil {
		if raw, ok := payload.([]byte); ok {
			body = bytes.NewReader(raw)
		} else {
			data, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(data)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// listPaged fetches a paginated listing endpoint, following continuation
// tokens until exhausted. decode receives each page's raw body.
func (c *Client) listPaged(ctx context.Context, path string, decode func(data []byte) (continuation string, err error)) error {
	token := ""
	for {
		url := c.url(path)
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		if token != "" {
			req.Header.Set("x-continuation", token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("read response: %w", readErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return parseAPIError(resp.StatusCode, data)
		}

		token, err = decode(data)
		if err != nil {
			return err
		}
		if token == "" {
			return nil
		}
	}
}

// ListCollections lists the environment's collections.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// ListLanguages lists the environment's languages.
func (c *Client) ListLanguages(ctx context.Context) ([]Language, error) {
	var all []Language
	err := c.listPaged(ctx, "/languages", func(data []byte) (string, error) {
		var page struct {
			Languages  []Language `json:"languages"`
			Pagination struct {
				ContinuationToken string `json:"continuation_token"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return "", fmt.Errorf("decode languages: %w", err)
		}
		all = append(all, page.Languages...)
		return page.Pagination.ContinuationToken, nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListWorkflows lists the environment's workflows.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var out []Workflow
	if err := c.do(ctx, http.MethodGet, "/workflows", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTaxonomies lists the environment's taxonomy groups.
func (c *Client) ListTaxonomies(ctx context.Context) ([]TaxonomyGroup, error) {
	var all []TaxonomyGroup
	err := c.listPaged(ctx, "/taxonomies", func(data []byte) (string, error) {
		var page struct {
			Taxonomies []TaxonomyGroup `json:"taxonomies"`
			Pagination struct {
				ContinuationToken string `json:"continuation_token"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return "", fmt.Errorf("decode taxonomies: %w", err)
		}
		all = append(all, page.Taxonomies...)
		return page.Pagination.ContinuationToken, nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListContentTypes lists the environment's content types.
func (c *Client) ListContentTypes(ctx context.Context) ([]ContentType, error) {
	var all []ContentType
	err := c.listPaged(ctx, "/types", func(data []byte) (string, error) {
		var page struct {
			Types      []ContentType `json:"types"`
			Pagination struct {
				ContinuationToken string `json:"continuation_token"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return "", fmt.Errorf("decode types: %w", err)
		}
		all = append(all, page.Types...)
		return page.Pagination.ContinuationToken, nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ListSnippets lists the environment's content type snippets.
func (c *Client) ListSnippets(ctx context.Context) ([]Snippet, error) {
	var all []Snippet
	err := c.listPaged(ctx, "/snippets", func(data []byte) (string, error) {
		var page struct {
			Snippets   []Snippet `json:"snippets"`
			Pagination struct {
				ContinuationToken string `json:"continuation_token"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return "", fmt.Errorf("decode snippets: %w", err)
		}
		all = append(all, page.Snippets...)
		return page.Pagination.ContinuationToken, nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ContentItemByCodename fetches a content item by codename.
func (c *Client) ContentItemByCodename(ctx context.Context, codename string) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, http.MethodGet, "/items/codename/"+codename, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ContentItemByID fetches a content item by internal ID.
func (c *Client) ContentItemByID(ctx context.Context, id string) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, http.MethodGet, "/items/"+id, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateContentItem creates a new content item.
func (c *Client) CreateContentItem(ctx context.Context, draft ContentItemDraft) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, http.MethodPost, "/items", draft, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertContentItem updates a content item addressed by codename.
func (c *Client) UpsertContentItem(ctx context.Context, codename string, draft ContentItemDraft) (*ContentItem, error) {
	var item ContentItem
	if err := c.do(ctx, http.MethodPut, "/items/codename/"+codename, draft, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func variantPath(itemCodename, languageCodename string) string {
	return fmt.Sprintf("/items/codename/%s/variants/codename/%s", itemCodename, languageCodename)
}

// LanguageVariant fetches a language variant by item and language codename.
func (c *Client) LanguageVariant(ctx context.Context, itemCodename, languageCodename string) (*LanguageVariant, error) {
	var variant LanguageVariant
	if err := c.do(ctx, http.MethodGet, variantPath(itemCodename, languageCodename), nil, &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

// UpsertLanguageVariant upserts a language variant's element values.
func (c *Client) UpsertLanguageVariant(ctx context.Context, itemCodename, languageCodename string, data LanguageVariantData) (*LanguageVariant, error) {
	var variant LanguageVariant
	if err := c.do(ctx, http.MethodPut, variantPath(itemCodename, languageCodename), data, &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

// PublishVariant publishes a language variant.
func (c *Client) PublishVariant(ctx context.Context, itemCodename, languageCodename string) error {
	return c.do(ctx, http.MethodPut, variantPath(itemCodename, languageCodename)+"/publish", nil, nil)
}

// UnpublishVariant unpublishes a language variant. Returns a domain error
// recognizable via IsVariantNotPublished when the variant is not published.
func (c *Client) UnpublishVariant(ctx context.Context, itemCodename, languageCodename string) error {
	return c.do(ctx, http.MethodPut, variantPath(itemCodename, languageCodename)+"/unpublish-and-archive", nil, nil)
}

// ChangeWorkflowStep moves a language variant to the given workflow step.
func (c *Client) ChangeWorkflowStep(ctx context.Context, itemCodename, languageCodename string, workflow, step ObjectReference) error {
	payload := VariantWorkflow{
		WorkflowIdentifier: workflow,
		StepIdentifier:     step,
	}
	return c.do(ctx, http.MethodPut, variantPath(itemCodename, languageCodename)+"/change-workflow", payload, nil)
}

// AssetByCodename fetches an asset by codename.
func (c *Client) AssetByCodename(ctx context.Context, codename string) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodGet, "/assets/codename/"+codename, nil, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// AssetByID fetches an asset by internal ID.
func (c *Client) AssetByID(ctx context.Context, id string) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodGet, "/assets/"+id, nil, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// CreateAsset creates a new asset from an uploaded file reference.
func (c *Client) CreateAsset(ctx context.Context, draft AssetDraft) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodPost, "/assets", draft, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpsertAsset updates an asset addressed by codename. A draft without a
// file reference keeps the existing binary.
func (c *Client) UpsertAsset(ctx context.Context, codename string, draft AssetDraft) (*Asset, error) {
	var asset Asset
	if err := c.do(ctx, http.MethodPut, "/assets/codename/"+codename, draft, &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UploadBinaryFile uploads a binary file and returns the file reference to
// attach to an asset draft.
func (c *Client) UploadBinaryFile(ctx context.Context, filename, contentType string, data []byte) (ObjectReference, error) {
	var out struct {
		ID string `json:"id"`
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := c.doRaw(ctx, http.MethodPost, "/files/"+filename, data, contentType, &out); err != nil {
		return ObjectReference{}, err
	}
	return ObjectReference{ID: out.ID}, nil
}

// DownloadBinary fetches an asset binary from its delivery URL. The URL is
// outside the Management API; no auth header is attached.
func (c *Client) DownloadBinary(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.plain.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

package dogapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/dogbreeds/internal/breed"
	"github.com/rohmanhakim/dogbreeds/internal/metadata"
	"github.com/rohmanhakim/dogbreeds/pkg/limiter"
	"github.com/rohmanhakim/dogbreeds/pkg/urlutil"
	"github.com/tidwall/gjson"
)

/*
Client

Responsibilities:
- GET {baseURL}/breed/{breed}/list from the dog.ceo API
- Apply headers, the HTTP client timeout and the per-host politeness delay
- Parse the {"status": ..., "message": [...]} envelope
- Report every failure as a breed.BreedError

The Client never retries; a failed request is reported once.
*/

// DefaultBaseURL is the public dog.ceo API root.
const DefaultBaseURL = "https://dog.ceo/api"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

type Client struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	baseURL      url.URL
	userAgent    string
	rateLimiter  limiter.RateLimiter
}

var _ breed.Source = (*Client)(nil)

// NewClient creates a Client with its own http.Client using timeout.
// rateLimiter is optional; if nil, requests are not spaced out.
func NewClient(
	metadataSink metadata.MetadataSink,
	baseURL url.URL,
	userAgent string,
	timeout time.Duration,
	rateLimiter limiter.RateLimiter,
) *Client {
	return NewClientWithHTTPClient(
		metadataSink,
		baseURL,
		userAgent,
		&http.Client{Timeout: timeout},
		rateLimiter,
	)
}

// NewClientWithHTTPClient creates a Client around a caller-supplied http.Client.
// This is useful for testing.
func NewClientWithHTTPClient(
	metadataSink metadata.MetadataSink,
	baseURL url.URL,
	userAgent string,
	httpClient *http.Client,
	rateLimiter limiter.RateLimiter,
) *Client {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	return &Client{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		baseURL:      urlutil.APIRoot(baseURL),
		userAgent:    userAgent,
		rateLimiter:  rateLimiter,
	}
}

// SubBreeds fetches the sub-breeds of name. The name is trimmed and
// lower-cased before it is put in the request path.
func (c *Client) SubBreeds(ctx context.Context, name string) ([]string, error) {
	callerMethod := "Client.SubBreeds"

	key := breed.Normalize(name)
	if !validKey(key) {
		err := &breed.BreedError{
			Breed:   name,
			Message: "breed name must be a single non-empty path segment",
			Cause:   breed.ErrCauseInvalidBreed,
		}
		c.recordError(callerMethod, name, "", 0, err)
		return nil, err
	}

	endpoint := c.Endpoint(key)

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, urlutil.HostKey(c.baseURL)); err != nil {
			berr := &breed.BreedError{
				Breed:     name,
				Message:   err.Error(),
				Retryable: true,
				Cause:     breed.ErrCauseRateLimitWait,
			}
			c.recordError(callerMethod, name, endpoint, 0, berr)
			return nil, berr
		}
	}

	start := time.Now()
	list, meta, berr := c.performFetch(ctx, endpoint, name)
	c.metadataSink.RecordFetch(endpoint, meta.statusCode, time.Since(start), meta.contentType)

	if berr != nil {
		c.recordError(callerMethod, name, endpoint, meta.statusCode, berr)
		return nil, berr
	}
	return list, nil
}

// validKey reports whether key can stand as one path segment. "." and ".."
// would be cleaned by JoinPath into a different endpoint.
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." && !strings.Contains(key, "/")
}

// Endpoint returns the list URL for an already normalized breed key.
func (c *Client) Endpoint(key string) string {
	return c.baseURL.JoinPath("breed", key, "list").String()
}

type responseMeta struct {
	statusCode  int
	contentType string
}

func (c *Client) performFetch(ctx context.Context, endpoint, name string) ([]string, responseMeta, *breed.BreedError) {
	var meta responseMeta

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, meta, &breed.BreedError{
			Breed:   name,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   breed.ErrCauseInvalidBreed,
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, meta, &breed.BreedError{
			Breed:     name,
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     breed.ErrCauseNetworkFailure,
		}
	}
	defer resp.Body.Close()

	meta.statusCode = resp.StatusCode
	meta.contentType = resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// dog.ceo answers unknown breeds with 404 and an error envelope
		return nil, meta, breed.NotFound(name)

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, meta, &breed.BreedError{
			Breed:     name,
			Message:   fmt.Sprintf("status %d", resp.StatusCode),
			Retryable: true,
			Cause:     breed.ErrCauseUnexpectedStatus,
		}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, meta, &breed.BreedError{
			Breed:   name,
			Message: fmt.Sprintf("status %d", resp.StatusCode),
			Cause:   breed.ErrCauseUnexpectedStatus,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, meta, &breed.BreedError{
			Breed:     name,
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     breed.ErrCauseReadResponseBodyError,
		}
	}
	if len(body) > maxBodySize {
		return nil, meta, &breed.BreedError{
			Breed:   name,
			Message: fmt.Sprintf("response body exceeds %d bytes", maxBodySize),
			Cause:   breed.ErrCauseMalformedResponse,
		}
	}

	list, berr := ParseEnvelope(body, name)
	return list, meta, berr
}

// ParseEnvelope extracts the sub-breed list from a dog.ceo response body.
// Entries are trimmed and empty entries are dropped; order is kept.
// A success envelope whose message is missing or not an array has no
// sub-breeds.
func ParseEnvelope(body []byte, name string) ([]string, *breed.BreedError) {
	if !gjson.ValidBytes(body) {
		return nil, &breed.BreedError{
			Breed:   name,
			Message: "response is not valid JSON",
			Cause:   breed.ErrCauseMalformedResponse,
		}
	}

	envelope := gjson.ParseBytes(body)
	status := envelope.Get("status").String()

	switch {
	case strings.EqualFold(status, "success"):
	case strings.EqualFold(status, "error"):
		return nil, &breed.BreedError{
			Breed:   name,
			Message: envelope.Get("message").String(),
			Cause:   breed.ErrCauseUnknownBreed,
		}
	default:
		return nil, &breed.BreedError{
			Breed:   name,
			Message: fmt.Sprintf("unexpected status %q", status),
			Cause:   breed.ErrCauseMalformedResponse,
		}
	}

	list := make([]string, 0)
	message := envelope.Get("message")
	if !message.IsArray() {
		return list, nil
	}

	message.ForEach(func(_, value gjson.Result) bool {
		if sub := strings.TrimSpace(value.String()); sub != "" {
			list = append(list, sub)
		}
		return true
	})
	return list, nil
}

func (c *Client) recordError(callerMethod, name, endpoint string, httpStatus int, err *breed.BreedError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrBreed, name),
	}
	if httpStatus != 0 {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(httpStatus)))
	}
	if endpoint != "" {
		attrs = append(attrs,
			metadata.NewAttr(metadata.AttrURL, endpoint),
			metadata.NewAttr(metadata.AttrHost, urlutil.HostKey(c.baseURL)),
		)
	}
	if err.Message != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrMessage, err.Message))
	}

	c.metadataSink.RecordError(
		time.Now(),
		"dogapi",
		callerMethod,
		mapBreedErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}

// mapBreedErrorToMetadataCause maps breed error causes to the canonical
// metadata.ErrorCause table. The mapping is observational only.
func mapBreedErrorToMetadataCause(err *breed.BreedError) metadata.ErrorCause {
	switch err.Cause {
	case breed.ErrCauseUnknownBreed, breed.ErrCauseInvalidBreed:
		return metadata.CauseNotFound
	case breed.ErrCauseNetworkFailure, breed.ErrCauseUnexpectedStatus, breed.ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	case breed.ErrCauseMalformedResponse:
		return metadata.CauseContentInvalid
	case breed.ErrCauseRateLimitWait:
		return metadata.CausePolicyDisallow
	default:
		return metadata.CauseUnknown
	}
}

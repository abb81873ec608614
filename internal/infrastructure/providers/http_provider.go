// Package providers contains clients for external risk data services.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/pkg/errors"
)

const maxResponseBytes = 4 << 20

// HTTPProvider fetches raw risk payloads from a JSON-over-HTTP provider.
// The provider is expected to answer GET <url>?property_id=<id> with a JSON
// object; the payload is passed to the normalizer untouched.
type HTTPProvider struct {
	sourceID string
	baseURL  string
	apiKey   string
	client   *http.Client
}

// NewHTTPProvider builds a provider client.  httpClient may be nil.
func NewHTTPProvider(sourceID, baseURL, apiKey string, httpClient *http.Client) *HTTPProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPProvider{
		sourceID: sourceID,
		baseURL:  baseURL,
		apiKey:   apiKey,
		client:   httpClient,
	}
}

func (p *HTTPProvider) SourceID() string { return p.sourceID }

func (p *HTTPProvider) FetchRisk(ctx context.Context, propertyID string) (risk.RawSourcePayload, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfiguration,
			fmt.Sprintf("provider %s has an invalid url", p.sourceID))
	}
	q := u.Query()
	q.Set("property_id", propertyID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderFetchFailed, "failed to build provider request")
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderTimeout,
				fmt.Sprintf("provider %s timed out", p.sourceID))
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderFetchFailed,
			fmt.Sprintf("provider %s unreachable", p.sourceID))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeProviderFetchFailed,
			"provider %s returned status %d", p.sourceID, resp.StatusCode)
	}

	var payload risk.RawSourcePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization,
			fmt.Sprintf("provider %s returned malformed JSON", p.sourceID))
	}
	return payload, nil
}

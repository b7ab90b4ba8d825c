package distribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
)

// maxResponseSize is the maximum allowed response size from the gateway (10MB)
const maxResponseSize = 10 * 1024 * 1024

// SefazAdapter implements the DistributionClient port against the fiscal
// authority's document distribution gateway. Each location resolves to an
// authenticated channel; without one, every call fails with
// fiscal.ErrChannelNotConfigured before any I/O.
type SefazAdapter struct {
	config     *ChannelConfig
	httpClient *http.Client

	// locationConfigs stores per-location channels. In production these are
	// loaded from the location onboarding flow.
	locationConfigs map[uuid.UUID]*ChannelConfig
	mu              sync.RWMutex // Protects locationConfigs map
}

// NewSefazAdapter creates a new adapter with a default channel configuration.
// A nil config is allowed; locations then require explicit channels.
func NewSefazAdapter(config *ChannelConfig) (*SefazAdapter, error) {
	timeout := 30 * time.Second
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return &SefazAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		locationConfigs: make(map[uuid.UUID]*ChannelConfig),
	}, nil
}

// SetLocationConfig sets the channel configuration for a specific location
func (a *SefazAdapter) SetLocationConfig(locationID uuid.UUID, config *ChannelConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locationConfigs[locationID] = config
	return nil
}

// getLocationConfig retrieves the channel configuration for a location
func (a *SefazAdapter) getLocationConfig(locationID uuid.UUID) (*ChannelConfig, error) {
	a.mu.RLock()
	config, ok := a.locationConfigs[locationID]
	a.mu.RUnlock()
	if ok {
		return config, nil
	}
	// Fall back to default config
	if a.config != nil {
		return a.config, nil
	}
	return nil, fiscal.ErrChannelNotConfigured
}

// FetchSince requests every document after lastNSU. Non-numeric or empty
// input is coerced to the start-of-stream cursor.
func (a *SefazAdapter) FetchSince(ctx context.Context, locationID uuid.UUID, lastNSU string) (*fiscal.BatchResult, error) {
	config, err := a.getLocationConfig(locationID)
	if err != nil {
		return nil, err
	}

	req := a.newRequest(config)
	req.DistNSU = &distNSUQuery{UltNSU: fiscal.NormalizeNSU(lastNSU)}
	return a.fetch(ctx, config, req)
}

// FetchByNSU requests the single document at nsu. Invalid input is rejected
// with fiscal.ErrInvalidNSU before any I/O.
func (a *SefazAdapter) FetchByNSU(ctx context.Context, locationID uuid.UUID, nsu string) (*fiscal.BatchResult, error) {
	parsed, err := fiscal.ParseNSU(nsu)
	if err != nil {
		return nil, err
	}

	config, err := a.getLocationConfig(locationID)
	if err != nil {
		return nil, err
	}

	req := a.newRequest(config)
	req.ConsNSU = &consNSUQuery{NSU: parsed}
	return a.fetch(ctx, config, req)
}

// FetchByAccessKey requests the document identified by a 44-digit access
// key. Invalid keys are rejected with fiscal.ErrInvalidAccessKey before any I/O.
func (a *SefazAdapter) FetchByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.BatchResult, error) {
	key, ok := fiscal.NormalizeAccessKey(accessKey)
	if !ok {
		return nil, fiscal.ErrInvalidAccessKey
	}

	config, err := a.getLocationConfig(locationID)
	if err != nil {
		return nil, err
	}

	req := a.newRequest(config)
	req.ConsChNFe = &consChNFeQuery{ChNFe: key}
	return a.fetch(ctx, config, req)
}

// newRequest builds the common request envelope for a channel
func (a *SefazAdapter) newRequest(config *ChannelConfig) *distributionRequest {
	return &distributionRequest{
		TpAmb:          config.TpAmb(),
		CUFAutor:       config.UFCode,
		CNPJ:           config.CNPJ,
		CertificateRef: config.CertificateRef,
	}
}

// fetch performs one request and interprets the response envelope
func (a *SefazAdapter) fetch(ctx context.Context, config *ChannelConfig, req *distributionRequest) (*fiscal.BatchResult, error) {
	respBody, err := a.doRequest(ctx, config, req)
	if err != nil {
		return nil, err
	}

	var resp distributionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", fiscal.ErrInvalidResponse, err)
	}
	if resp.CStat == "" {
		return nil, fmt.Errorf("%w: missing status code", fiscal.ErrInvalidResponse)
	}

	outcome, err := fiscal.InterpretStatusCode(resp.CStat, resp.XMotivo)
	if err != nil {
		return nil, err
	}

	result := &fiscal.BatchResult{
		Outcome:    outcome,
		StatusCode: resp.CStat,
		StatusText: resp.XMotivo,
		UltNSU:     resp.UltNSU,
		MaxNSU:     resp.MaxNSU,
	}

	for _, doc := range resp.Documents {
		payload, err := doc.Decode()
		if err != nil {
			// Keep the undecodable payload; the classifier marks it
			// unrecognized and the sync isolates the failure per record.
			payload = []byte(doc.Content)
		}
		result.Documents = append(result.Documents, fiscal.RawDocument{
			NSU:     doc.NSU,
			Schema:  doc.Schema,
			Payload: payload,
		})
	}

	return result, nil
}

// doRequest performs an HTTP request to the distribution gateway
func (a *SefazAdapter) doRequest(ctx context.Context, config *ChannelConfig, reqBody *distributionRequest) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("sefaz: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", config.APIBaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sefaz: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fiscal.ErrDistributionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("sefaz: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", fiscal.ErrDistributionUnavailable, resp.StatusCode)
	}

	return body, nil
}

// Ensure SefazAdapter implements the DistributionClient port
var _ fiscal.DistributionClient = (*SefazAdapter)(nil)

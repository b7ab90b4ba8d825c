package distribution

import (
	"errors"
	"strconv"
)

// ChannelConfig holds the authenticated channel settings one location uses
// against the document distribution gateway. The gateway terminates the
// mutual-TLS session with the fiscal authority; this service references the
// stored certificate by name.
type ChannelConfig struct {
	// CNPJ is the 14-digit national registry number the channel is
	// authorized to receive documents for.
	CNPJ string
	// UFCode is the IBGE code of the authoring state (cUFAutor).
	UFCode string
	// CertificateRef names the client certificate registered with the gateway.
	CertificateRef string
	// APIBaseURL is the gateway endpoint.
	APIBaseURL string
	// Environment selects production or homologation ("1" / "2" on the wire).
	Environment string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

const (
	// SefazProductionAPIURL is the production gateway endpoint
	SefazProductionAPIURL = "https://www1.nfe.fazenda.gov.br/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx"
	// SefazHomologationAPIURL is the homologation gateway endpoint
	SefazHomologationAPIURL = "https://hom1.nfe.fazenda.gov.br/NFeDistribuicaoDFe/NFeDistribuicaoDFe.asmx"

	// EnvironmentProduction and EnvironmentHomologation are the accepted
	// Environment values; tpAmb 1 and 2 respectively.
	EnvironmentProduction   = "production"
	EnvironmentHomologation = "homologation"
)

// Errors for channel configuration
var (
	ErrSefazConfigMissingCNPJ        = errors.New("sefaz: CNPJ is required")
	ErrSefazConfigInvalidCNPJ        = errors.New("sefaz: CNPJ must be 14 digits")
	ErrSefazConfigMissingCertificate = errors.New("sefaz: certificate reference is required")
)

// NewChannelConfig creates a channel configuration with defaults
func NewChannelConfig(cnpj, certificateRef string) *ChannelConfig {
	return &ChannelConfig{
		CNPJ:           cnpj,
		CertificateRef: certificateRef,
		APIBaseURL:     SefazProductionAPIURL,
		Environment:    EnvironmentProduction,
		TimeoutSeconds: 30,
	}
}

// NewHomologationChannelConfig creates a channel configuration for the
// homologation environment
func NewHomologationChannelConfig(cnpj, certificateRef string) *ChannelConfig {
	return &ChannelConfig{
		CNPJ:           cnpj,
		CertificateRef: certificateRef,
		APIBaseURL:     SefazHomologationAPIURL,
		Environment:    EnvironmentHomologation,
		TimeoutSeconds: 30,
	}
}

// Validate validates the channel configuration
func (c *ChannelConfig) Validate() error {
	if c.CNPJ == "" {
		return ErrSefazConfigMissingCNPJ
	}
	if len(c.CNPJ) != 14 {
		return ErrSefazConfigInvalidCNPJ
	}
	if _, err := strconv.ParseUint(c.CNPJ, 10, 64); err != nil {
		return ErrSefazConfigInvalidCNPJ
	}
	if c.CertificateRef == "" {
		return ErrSefazConfigMissingCertificate
	}
	if c.APIBaseURL == "" {
		if c.Environment == EnvironmentHomologation {
			c.APIBaseURL = SefazHomologationAPIURL
		} else {
			c.APIBaseURL = SefazProductionAPIURL
		}
	}
	if c.Environment == "" {
		c.Environment = EnvironmentProduction
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// TpAmb returns the wire value of the environment flag.
func (c *ChannelConfig) TpAmb() string {
	if c.Environment == EnvironmentHomologation {
		return "2"
	}
	return "1"
}

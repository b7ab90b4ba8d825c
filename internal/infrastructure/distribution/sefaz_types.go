package distribution

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// distributionRequest is the JSON body sent to the gateway. Exactly one of
// the three query fields is set per request.
type distributionRequest struct {
	TpAmb          string `json:"tpAmb"`
	CUFAutor       string `json:"cUFAutor,omitempty"`
	CNPJ           string `json:"CNPJ"`
	CertificateRef string `json:"certRef"`

	// DistNSU requests everything after a cursor position.
	DistNSU *distNSUQuery `json:"distNSU,omitempty"`
	// ConsNSU requests the single document at a position.
	ConsNSU *consNSUQuery `json:"consNSU,omitempty"`
	// ConsChNFe requests the document for one access key.
	ConsChNFe *consChNFeQuery `json:"consChNFe,omitempty"`
}

type distNSUQuery struct {
	UltNSU string `json:"ultNSU"`
}

type consNSUQuery struct {
	NSU string `json:"NSU"`
}

type consChNFeQuery struct {
	ChNFe string `json:"chNFe"`
}

// distributionResponse is the gateway's answer envelope. The service status
// code and reason text are carried verbatim; documents arrive base64-encoded
// and usually gzip-compressed.
type distributionResponse struct {
	CStat     string            `json:"cStat"`
	XMotivo   string            `json:"xMotivo"`
	UltNSU    string            `json:"ultNSU"`
	MaxNSU    string            `json:"maxNSU"`
	Documents []distributionDoc `json:"loteDistDFeInt"`
}

// distributionDoc is one document inside a distribution lot.
type distributionDoc struct {
	NSU     string `json:"NSU"`
	Schema  string `json:"schema"`
	Content string `json:"docZip"`
}

// Decode returns the document payload: base64-decoded and, when the content
// is gzip-compressed, inflated. Uncompressed payloads pass through.
func (d *distributionDoc) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(d.Content)
	if err != nil {
		return nil, fmt.Errorf("sefaz: document %s is not valid base64: %w", d.NSU, err)
	}

	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("sefaz: document %s has a corrupt gzip header: %w", d.NSU, err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(io.LimitReader(zr, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("sefaz: failed to inflate document %s: %w", d.NSU, err)
	}
	return payload, nil
}

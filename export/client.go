package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voyage/models"
)

// ErrPDFService is wrapped by every PDFClient failure.
var ErrPDFService = errors.New("PDF export failed")

// PDFClient posts the proposal to the remote rendering service.
type PDFClient struct {
	Endpoint string
	HTTP     *http.Client
}

func NewPDFClient(endpoint string) *PDFClient {
	return &PDFClient{Endpoint: endpoint, HTTP: http.DefaultClient}
}

// Render sends doc as JSON and returns the PDF stream. The caller closes it.
// Failures are not retried.
func (c *PDFClient) Render(ctx context.Context, doc *models.VoyageDocument) (io.ReadCloser, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", ErrPDFService, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: service returned %d: %s", ErrPDFService, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return resp.Body, nil
}

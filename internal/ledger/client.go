package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Pallet is the remote ledger's view of a container.
type Pallet struct {
	ID                        int64  `json:"id"`
	JobNumber                 string `json:"jobNumber"`
	Name                      string `json:"name"`
	ItemCount                 int    `json:"itemCount"`
	HasPackagingBeenGenerated bool   `json:"hasPackagingBeenGenerated"`
}

// ScanRecord is one committed scan inside a pallet.
type ScanRecord struct {
	QRCode    string    `json:"qrCode"`
	PartID    string    `json:"partId"`
	PalletID  int64     `json:"palletId"`
	ScannedBy string    `json:"scannedBy"`
	ScanDate  time.Time `json:"scanDate"`
}

// SubmitScanRequest is the payload for a scan submission.
type SubmitScanRequest struct {
	JobNumber string `json:"jobNumber"`
	PartID    string `json:"partId"`
	QRCode    string `json:"qrCode"`
	PalletID  int64  `json:"palletId"`
	ScannedBy string `json:"scannedBy,omitempty"`
}

// SubmitScanResponse carries the server's confirmation message.
type SubmitScanResponse struct {
	Message string `json:"message"`
}

// APIError is a business rejection reported by the ledger (HTTP 4xx). The
// server message is preserved verbatim for the operator.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAPIError reports whether err is a server-side business rejection as
// opposed to a transport failure.
func IsAPIError(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// Client talks to the remote scan ledger over HTTP/JSON.
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
}

// NewClient creates a ledger client with a bounded request timeout. A hung
// request must not pin the submission coordinator forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// SubmitScan records one scanned item against a pallet.
func (c *Client) SubmitScan(ctx context.Context, req SubmitScanRequest) (*SubmitScanResponse, error) {
	var resp SubmitScanResponse
	if err := c.do(ctx, http.MethodPost, "/api/dashboard/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteScan removes a committed scan from a pallet.
func (c *Client) DeleteScan(ctx context.Context, qrCode string, palletID int64) error {
	body := map[string]interface{}{"qrCode": qrCode, "palletId": palletID}
	return c.do(ctx, http.MethodDelete, "/api/dashboard/scan", body, nil)
}

// ListPallets fetches the pallets of one job.
func (c *Client) ListPallets(ctx context.Context, jobNumber string) ([]Pallet, error) {
	var pallets []Pallet
	if err := c.do(ctx, http.MethodGet, "/api/dashboard/pallets/"+jobNumber, nil, &pallets); err != nil {
		return nil, err
	}
	return pallets, nil
}

// PalletContents fetches the scan records assigned to one pallet.
func (c *Client) PalletContents(ctx context.Context, palletID int64) ([]ScanRecord, error) {
	var records []ScanRecord
	path := fmt.Sprintf("/api/dashboard/pallets/%d/contents", palletID)
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreatePallet creates a pallet for a job. Name is server-generated when empty.
func (c *Client) CreatePallet(ctx context.Context, jobNumber, name string) (*Pallet, error) {
	body := map[string]interface{}{"jobNumber": jobNumber}
	if name != "" {
		body["name"] = name
	}
	var pallet Pallet
	if err := c.do(ctx, http.MethodPost, "/api/dashboard/pallets", body, &pallet); err != nil {
		return nil, err
	}
	return &pallet, nil
}

// RenamePallet changes a pallet's display name.
func (c *Client) RenamePallet(ctx context.Context, palletID int64, name string) (*Pallet, error) {
	var pallet Pallet
	path := fmt.Sprintf("/api/dashboard/pallets/%d", palletID)
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"name": name}, &pallet); err != nil {
		return nil, err
	}
	return &pallet, nil
}

// DeletePallet removes an empty pallet. The server refuses non-empty ones.
func (c *Client) DeletePallet(ctx context.Context, palletID int64) error {
	path := fmt.Sprintf("/api/dashboard/pallets/%d", palletID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// UnlockPallet clears the packaging lock. Requires a supervisor token.
func (c *Client) UnlockPallet(ctx context.Context, palletID int64) error {
	path := fmt.Sprintf("/api/dashboard/pallets/%d/packaging", palletID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeError extracts the server's message so the operator sees the
// business reason, not an HTTP status code.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		} else if body.Error != "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("ledger request failed with status %d", resp.StatusCode)
	}
	return apiErr
}

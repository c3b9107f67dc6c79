// internal/publish/pinata.go
// Pinata pinning backend. Artifacts are pinned to IPFS through the Pinata
// HTTP API using a JWT credential.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const pinataPinURL = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// PinataClient publishes artifacts by pinning them to IPFS via Pinata.
type PinataClient struct {
	jwt     string       // Pinata API credential
	gateway string       // Gateway base URL for retrieval links, no trailing slash
	hc      *http.Client // HTTP client with custom configuration
	log     *slog.Logger
}

// NewPinata creates a Pinata publisher.
// The credential is a JWT issued by Pinata; its expiry claim is inspected (not
// verified) so that an expired or soon-expiring credential is surfaced at
// startup instead of as a string of mid-run upload failures.
// Parameters:
//   - token: Pinata JWT credential
//   - gateway: IPFS gateway base URL used to build retrieval links
// Returns:
//   - *PinataClient: Initialized Pinata publisher
//   - error: Any error that occurred during initialization
func NewPinata(token, gateway string, log *slog.Logger) (*PinataClient, error) {
	if token == "" {
		return nil, fmt.Errorf("empty pinata credential")
	}
	if log == nil {
		log = slog.Default()
	}

	checkCredentialExpiry(token, log)

	// Configure HTTP transport with connection timeouts
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}

	return &PinataClient{
		jwt:     token,
		gateway: gateway,
		hc:      &http.Client{Transport: transport, Timeout: 60 * time.Second},
		log:     log,
	}, nil
}

// checkCredentialExpiry parses the credential without verifying its signature
// and warns when the expiry claim is past or near.
func checkCredentialExpiry(token string, log *slog.Logger) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		log.Warn("pinata credential is not a parseable JWT", "error", err)
		return
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return // Pinata issues non-expiring credentials too
	}
	switch {
	case time.Now().After(exp.Time):
		log.Warn("pinata credential is expired", "expired_at", exp.Time)
	case time.Until(exp.Time) < 7*24*time.Hour:
		log.Warn("pinata credential expires soon", "expires_at", exp.Time)
	}
}

// pinResponse is the relevant subset of the Pinata pin API response.
type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Publish pins one artifact and returns its IPFS content hash.
func (c *PinataClient) Publish(ctx context.Context, name string, payload []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build pin request: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("build pin request: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{"name": name})
	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("build pin request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build pin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pinataPinURL, &body)
	if err != nil {
		return nil, fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pin %s: unexpected status %s", name, resp.Status)
	}

	var pin pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return nil, fmt.Errorf("pin %s: decode response: %w", name, err)
	}
	if pin.IpfsHash == "" {
		return nil, fmt.Errorf("pin %s: response carries no content hash", name)
	}

	c.log.Info("artifact pinned", "name", name, "hash", pin.IpfsHash, "size", pin.PinSize)

	result := &Result{Reference: pin.IpfsHash}
	if c.gateway != "" {
		result.URL = c.gateway + "/" + pin.IpfsHash
	}
	return result, nil
}

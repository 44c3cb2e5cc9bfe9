package gaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/logging"
)

type propertyMetadata struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// DisplayName looks up a property's display name in the Admin API.
func (c *Client) DisplayName(ctx context.Context, credential, propertyID string) (string, error) {
	if strings.TrimSpace(credential) == "" {
		return "", ErrMissingCredential
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.config.AdminBaseURL, "/"), normalizePropertyID(propertyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", logging.NewOperationError("gaclient.display_name", propertyID, err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("gaclient.display_name", propertyID, err)
		c.logger.Warn("display name lookup failed", zap.Error(wrapped), zap.String("property_id", propertyID))
		return "", wrapped
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", logging.NewOperationError("gaclient.display_name", propertyID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", logging.NewOperationError("gaclient.display_name", propertyID, statusError(resp.StatusCode, data))
	}

	var meta propertyMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", logging.NewOperationError("gaclient.display_name", propertyID, fmt.Errorf("malformed provider response: %w", err))
	}
	return meta.DisplayName, nil
}

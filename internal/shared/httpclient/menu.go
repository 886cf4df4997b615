package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dinesync/internal/domain/orders"
	"dinesync/internal/ports"
)

// ErrMenuItemNotFound is returned when the menu service does not know the item.
var ErrMenuItemNotFound = errors.New("httpclient: menu item not found")

const clientTimeout = 10 * time.Second

// MenuServiceClient reads menu items over HTTP.
type MenuServiceClient struct {
	base string
	http *http.Client
}

var _ ports.MenuClient = (*MenuServiceClient)(nil)

// NewMenuClient builds a client for the menu service at baseURL.
func NewMenuClient(baseURL string) *MenuServiceClient {
	return &MenuServiceClient{
		base: baseURL,
		http: &http.Client{Timeout: clientTimeout},
	}
}

type menuItemDTO struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
	ImagePath string  `json:"image_path"`
}

// GetItem fetches one menu item by id.
func (c *MenuServiceClient) GetItem(ctx context.Context, id int64) (ports.MenuItem, error) {
	url := fmt.Sprintf("%s/api/menu/%d", c.base, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.MenuItem{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.MenuItem{}, fmt.Errorf("menu service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ports.MenuItem{}, ErrMenuItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return ports.MenuItem{}, fmt.Errorf("menu service returned %d", resp.StatusCode)
	}

	var dto menuItemDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return ports.MenuItem{}, fmt.Errorf("decode menu item: %w", err)
	}

	return ports.MenuItem{
		ID:        dto.ID,
		Name:      dto.Name,
		Price:     orders.NewMoneyFromFloat2(dto.Price),
		Available: dto.Available,
		ImagePath: dto.ImagePath,
	}, nil
}

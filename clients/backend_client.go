package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/google/uuid"
)

// StatusError is returned for any non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// BackendClient calls the shop's REST API on behalf of the signed-in shopper.
type BackendClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewBackendClient(baseURL, token string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UpdateCartItemSize calls POST /api/user/updateCartItemSize
func (c *BackendClient) UpdateCartItemSize(ctx context.Context, req models.UpdateSizeRequest) (models.Envelope, error) {
	var resp models.Envelope
	if err := c.do(ctx, http.MethodPost, "/api/user/updateCartItemSize", req, &resp); err != nil {
		return models.Envelope{}, err
	}
	return resp, resp.Err()
}

// AddToCart calls POST /api/user/addToCart. On success the response carries
// the whole updated cart.
func (c *BackendClient) AddToCart(ctx context.Context, req models.LineRequest) (models.AddToCartResponse, error) {
	var resp models.AddToCartResponse
	if err := c.do(ctx, http.MethodPost, "/api/user/addToCart", req, &resp); err != nil {
		return models.AddToCartResponse{}, err
	}
	return resp, resp.Err()
}

// DecreaseQuantity calls POST /api/user/decreaseQuantityCart
func (c *BackendClient) DecreaseQuantity(ctx context.Context, req models.LineRequest) (models.Envelope, error) {
	var resp models.Envelope
	if err := c.do(ctx, http.MethodPost, "/api/user/decreaseQuantityCart", req, &resp); err != nil {
		return models.Envelope{}, err
	}
	return resp, resp.Err()
}

// RemoveProductCart calls POST /api/user/removeProductCart
func (c *BackendClient) RemoveProductCart(ctx context.Context, cartID string) (models.Envelope, error) {
	var resp models.Envelope
	err := c.do(ctx, http.MethodPost, "/api/user/removeProductCart", models.RemoveLineRequest{CartID: cartID}, &resp)
	if err != nil {
		return models.Envelope{}, err
	}
	return resp, resp.Err()
}

// GetCart calls GET /api/user/getCart
func (c *BackendClient) GetCart(ctx context.Context) ([]models.CartItem, error) {
	var resp models.CartResponse
	if err := c.do(ctx, http.MethodGet, "/api/user/getCart", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.ShoppingCart, nil
}

// GetMessagesForUser calls GET /api/message/getMessagesForUsers/:id
func (c *BackendClient) GetMessagesForUser(ctx context.Context, counterpartID string) ([]models.Message, error) {
	var resp models.MessagesResponse
	path := "/api/message/getMessagesForUsers/" + url.PathEscape(counterpartID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage calls POST /api/message/sendMessage/:id
func (c *BackendClient) SendMessage(ctx context.Context, counterpartID, body string) (models.Message, error) {
	var resp models.SendMessageResponse
	path := "/api/message/sendMessage/" + url.PathEscape(counterpartID)
	if err := c.do(ctx, http.MethodPost, path, models.SendMessageRequest{Body: body}, &resp); err != nil {
		return models.Message{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Message{}, err
	}
	return resp.Data, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bluetecnologia/status_admin/internal/models"
)

const (
	tokenIssuer = "status-admin"
	tokenTTL    = time.Minute
	maxErrBody  = 512
)

// HTTPStatusError is the cause recorded for non-2xx answers.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote store returned %d", e.StatusCode)
	}
	return fmt.Sprintf("remote store returned %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// HTTPGateway talks to the REST service-record store.
type HTTPGateway struct {
	BaseURL   string
	JWTSecret string
	Client    *http.Client
}

func NewHTTPGateway(baseURL, jwtSecret string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		JWTSecret: jwtSecret,
		Client:    client,
	}
}

func (g *HTTPGateway) Create(ctx context.Context, rec models.ServiceRecord) (models.ServiceRecord, error) {
	var out models.ServiceRecord
	err := g.do(ctx, http.MethodPost, "/services", payloadOf(rec), &out)
	return out, wrap(OpCreate, err)
}

func (g *HTTPGateway) UpdateByID(ctx context.Context, id uint, rec models.ServiceRecord) (models.ServiceRecord, error) {
	var out models.ServiceRecord
	if id == 0 {
		return out, wrap(OpUpdate, ErrMissingID)
	}
	err := g.do(ctx, http.MethodPut, servicePath(id), payloadOf(rec), &out)
	return out, wrap(OpUpdate, err)
}

func (g *HTTPGateway) List(ctx context.Context) ([]models.ServiceRecord, error) {
	var out []models.ServiceRecord
	err := g.do(ctx, http.MethodGet, "/services", nil, &out)
	return out, wrap(OpList, err)
}

func (g *HTTPGateway) FindByID(ctx context.Context, id uint) (models.ServiceRecord, error) {
	var out models.ServiceRecord
	err := g.do(ctx, http.MethodGet, servicePath(id), nil, &out)
	return out, wrap(OpFindByID, err)
}

func servicePath(id uint) string {
	return "/services/" + strconv.FormatUint(uint64(id), 10)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.JWTSecret != "" {
		token, err := g.signToken()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (g *HTTPGateway) signToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

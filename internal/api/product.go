package api

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ProductSnapshot is a point-in-time read of a product's descriptive and
// inventory fields. It is not persisted independently; it is attached to the
// current sale's line item.
type ProductSnapshot struct {
	Name  string
	Code  int64
	ID    int64 // derived from the product's self URL, 0 if not parseable
	Stock int
}

// productResponse models the loosely-typed upstream product schema.
// Pointers distinguish absent fields from zero values.
type productResponse struct {
	Nombre   *string `json:"nombre"`
	Codigo   any     `json:"codigo"`
	URL      string  `json:"url"`
	Stock    *int    `json:"stock"`
	Cantidad *int    `json:"cantidad"`
}

// Resolver fetches product records and normalizes their fields.
type Resolver struct {
	client   *http.Client
	tokens   *TokenManager
	forceTLS bool
}

// NewResolver creates a Resolver using the given HTTP client and token
// manager. When the API base is served over TLS, plain-http product self
// URLs handed out by the server are upgraded to https before fetching.
func NewResolver(client *http.Client, tokens *TokenManager, baseURL string) *Resolver {
	return &Resolver{
		client:   client,
		tokens:   tokens,
		forceTLS: strings.HasPrefix(baseURL, "https://"),
	}
}

// Resolve issues an authenticated GET for the product reference and extracts
// its fields. A 401 triggers one token refresh attempt as a side effect but
// the fetch itself is not retried here; the next cycle uses the fresh token.
func (r *Resolver) Resolve(ctx context.Context, productURL string) (ProductSnapshot, error) {
	if r.tokens.Token() == "" {
		return ProductSnapshot{}, ErrUnauthenticated
	}

	url := strings.TrimSpace(productURL)
	if r.forceTLS {
		// Some deployments hand out plain-http self URLs while the API
		// itself is only reachable over TLS.
		url = strings.Replace(url, "http://", "https://", 1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProductSnapshot{}, errors.Mark(errors.Wrap(err, "build product request"), ErrInvalidProductRef)
	}
	req.Header.Set("Authorization", r.tokens.AuthHeader())
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return ProductSnapshot{}, errors.Mark(errors.Wrap(err, "product request"), ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Refresh for the benefit of the next cycle; this fetch has
		// already failed.
		if err := r.tokens.Acquire(ctx); err != nil {
			log.Printf("product 401: token refresh failed: %v", err)
		}
		return ProductSnapshot{}, &StatusError{Op: "product", Code: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return ProductSnapshot{}, &StatusError{Op: "product", Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ProductSnapshot{}, errors.Mark(errors.Wrap(err, "read product response"), ErrTransport)
	}

	return parseProduct(body)
}

// parseProduct normalizes the upstream product payload:
//   - nombre is mandatory; its absence fails the product.
//   - codigo is a native integer or a numeric string, coerced; 0 otherwise.
//   - the id comes from the self URL, never from a dedicated field.
//   - stock lives under "stock" or, in older deployments, "cantidad";
//     first match wins, 0 if neither is present.
func parseProduct(body []byte) (ProductSnapshot, error) {
	var pr productResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return ProductSnapshot{}, errors.Mark(errors.Wrap(err, "decode product"), ErrParse)
	}
	if pr.Nombre == nil {
		return ProductSnapshot{}, errors.Mark(errors.New("product missing name"), ErrParse)
	}

	snap := ProductSnapshot{
		Name: *pr.Nombre,
		Code: coerceCode(pr.Codigo),
	}

	if id, err := ResourceID(pr.URL); err == nil {
		snap.ID = id
	}

	switch {
	case pr.Stock != nil:
		snap.Stock = *pr.Stock
	case pr.Cantidad != nil:
		snap.Stock = *pr.Cantidad
	}

	return snap, nil
}

func coerceCode(v any) int64 {
	switch c := v.(type) {
	case float64:
		return int64(c)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

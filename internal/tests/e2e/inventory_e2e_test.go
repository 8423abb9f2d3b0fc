// Package e2e provides end-to-end tests for the inventory service.
// The real router, service and in-memory store run behind an httptest.Server;
// every test starts from an empty inventory.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/abgdnv/inventory/internal/app"
	"github.com/abgdnv/inventory/internal/metrics"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "INVENTORY_SKIP_E2E_TESTS"

// productURL is the base URL of the inventory API.
const productURL = "/api/v1/products"

// InventoryE2ESuite is a test suite for end-to-end tests of the inventory service.
type InventoryE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	httpClient *http.Client
	logger     *slog.Logger
	ctx        context.Context
}

func (s *InventoryE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// SetupTest starts a server backed by a fresh, empty store.
func (s *InventoryE2ESuite) SetupTest() {
	if s.server != nil {
		s.server.Close()
	}
	deps := app.SetupDependencies(store.NewInMemoryStore(), messaging.NoopPublisher{}, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
}

func (s *InventoryE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
}

func TestInventoryE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(InventoryE2ESuite))
}

// --------------------------------------------------------------------------
// ---------- Payload structures and Helper methods for E2E tests -----------
// --------------------------------------------------------------------------

type productPayload struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type errorPayload struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *InventoryE2ESuite) doRequest(method, path string, payload any) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		require.NoError(s.T(), resp.Body.Close(), "Failed to close response body")
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return bodyBytes, resp.StatusCode
}

func decode[T any](s *InventoryE2ESuite, body []byte) T {
	s.T().Helper()
	var v T
	require.NoError(s.T(), json.Unmarshal(body, &v), "Failed to decode response: %s", string(body))
	return v
}

func (s *InventoryE2ESuite) create(p productPayload) service.ProductDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodPost, productURL, p)
	require.Equal(s.T(), http.StatusCreated, code, string(body))
	return decode[service.ProductDto](s, body)
}

func (s *InventoryE2ESuite) list(query string) []service.ProductDto {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, productURL+query, nil)
	require.Equal(s.T(), http.StatusOK, code, string(body))
	return decode[[]service.ProductDto](s, body)
}

func (s *InventoryE2ESuite) summary() metrics.InventoryMetrics {
	s.T().Helper()
	body, code := s.doRequest(http.MethodGet, productURL+"/metrics", nil)
	require.Equal(s.T(), http.StatusOK, code, string(body))
	return decode[metrics.InventoryMetrics](s, body)
}

func names(products []service.ProductDto) []string {
	result := make([]string, len(products))
	for i, p := range products {
		result[i] = p.Name
	}
	return result
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *InventoryE2ESuite) TestEmptyInventory() {
	// when
	body, code := s.doRequest(http.MethodGet, productURL, nil)
	summary := s.summary()

	// then
	s.Equal(http.StatusOK, code)
	s.JSONEq(`[]`, string(body))
	s.Equal(metrics.InventoryMetrics{MetricsByCategory: []metrics.CategoryMetrics{}}, summary)
}

func (s *InventoryE2ESuite) TestCreateAndList() {
	// given
	first := s.create(productPayload{Name: "Robot", Category: "Toys", Price: 10, Quantity: 5})
	second := s.create(productPayload{Name: "Kite", Category: "Outdoor", Price: 4, Quantity: 0})

	// when
	list := s.list("")

	// then
	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
	s.True(first.InStock)
	s.False(second.InStock)
	s.Equal([]string{"Robot", "Kite"}, names(list))
}

func (s *InventoryE2ESuite) TestUpdate() {
	// given
	created := s.create(productPayload{Name: "Robot", Category: "Toys", Price: 10, Quantity: 5})

	// when
	body, code := s.doRequest(http.MethodPut, fmt.Sprintf("%s/%d", productURL, created.ID),
		productPayload{Name: "Robot v2", Category: "Electronics", Price: 12.5, Quantity: 0})

	// then
	s.Require().Equal(http.StatusOK, code, string(body))
	updated := decode[service.ProductDto](s, body)
	s.Equal(created.ID, updated.ID)
	s.Equal("Robot v2", updated.Name)
	s.Equal("Electronics", updated.Category)
	s.False(updated.InStock)
	s.Equal(created.CreationDate, updated.CreationDate)
}

func (s *InventoryE2ESuite) TestUpdateMissingID_DoesNotInsert() {
	// given
	s.create(productPayload{Name: "Robot", Category: "Toys", Price: 10, Quantity: 5})

	// when
	body, code := s.doRequest(http.MethodPut, productURL+"/42",
		productPayload{Name: "Ghost", Category: "Toys", Price: 1, Quantity: 1})

	// then
	s.Equal(http.StatusNotFound, code)
	errBody := decode[errorPayload](s, body)
	s.Equal("error", errBody.Status)
	s.Equal("Product with ID 42 not found", errBody.Message)
	s.NotEmpty(errBody.Timestamp)
	s.Equal([]string{"Robot"}, names(s.list("")))
}

func (s *InventoryE2ESuite) TestDelete() {
	// given
	created := s.create(productPayload{Name: "Robot", Category: "Toys", Price: 10, Quantity: 5})
	path := fmt.Sprintf("%s/%d", productURL, created.ID)

	// when
	_, firstCode := s.doRequest(http.MethodDelete, path, nil)
	_, secondCode := s.doRequest(http.MethodDelete, path, nil)
	_, getCode := s.doRequest(http.MethodGet, path, nil)
	next := s.create(productPayload{Name: "Kite", Category: "Outdoor", Price: 4, Quantity: 1})

	// then
	s.Equal(http.StatusNoContent, firstCode)
	s.Equal(http.StatusNotFound, secondCode)
	s.Equal(http.StatusNotFound, getCode)
	s.Equal(int64(2), next.ID, "ids are never reused")
}

func (s *InventoryE2ESuite) TestStockTransitions() {
	testCases := []struct {
		name             string
		method           string
		suffix           string
		initialQuantity  int
		expectedQuantity int
		expectedInStock  bool
	}{
		{name: "out of stock", method: http.MethodPost, suffix: "outofstock", initialQuantity: 7, expectedQuantity: 0, expectedInStock: false},
		{name: "in stock", method: http.MethodPut, suffix: "instock", initialQuantity: 0, expectedQuantity: store.StockedQuantity, expectedInStock: true},
		{name: "in stock resets quantity", method: http.MethodPut, suffix: "instock", initialQuantity: 37, expectedQuantity: store.StockedQuantity, expectedInStock: true},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			// given
			created := s.create(productPayload{Name: "Robot", Category: "Toys", Price: 10, Quantity: tc.initialQuantity})

			// when
			_, code := s.doRequest(tc.method, fmt.Sprintf("%s/%d/%s", productURL, created.ID, tc.suffix), nil)

			// then
			s.Equal(http.StatusNoContent, code)
			body, _ := s.doRequest(http.MethodGet, fmt.Sprintf("%s/%d", productURL, created.ID), nil)
			found := decode[service.ProductDto](s, body)
			s.Equal(tc.expectedQuantity, found.Quantity)
			s.Equal(tc.expectedInStock, found.InStock)
		})
	}
}

func (s *InventoryE2ESuite) TestStockTransition_NotFound() {
	_, outCode := s.doRequest(http.MethodPost, productURL+"/99/outofstock", nil)
	_, inCode := s.doRequest(http.MethodPut, productURL+"/99/instock", nil)

	s.Equal(http.StatusNotFound, outCode)
	s.Equal(http.StatusNotFound, inCode)
}

func (s *InventoryE2ESuite) TestMetrics() {
	// given
	s.create(productPayload{Name: "a1", Category: "A", Price: 2, Quantity: 5})
	s.create(productPayload{Name: "a2", Category: "A", Price: 4, Quantity: 0})
	s.create(productPayload{Name: "b1", Category: "B", Price: 5, Quantity: 3})
	s.create(productPayload{Name: "c1", Category: "C", Price: 9, Quantity: 0})

	// when
	summary := s.summary()

	// then
	s.Equal(4, summary.TotalProducts)
	s.Equal(2, summary.TotalInStock)
	s.Equal(2, summary.TotalOutOfStock)
	s.InDelta(25.0, summary.TotalInventoryValue, 1e-9)
	s.InDelta(3.5, summary.AveragePrice, 1e-9)
	s.Require().Len(summary.MetricsByCategory, 2, "categories without stock are absent")
	s.Equal("A", summary.MetricsByCategory[0].Category)
	s.InDelta(10.0, summary.MetricsByCategory[0].TotalInventoryValue, 1e-9)
	s.Equal("B", summary.MetricsByCategory[1].Category)
	s.InDelta(15.0, summary.MetricsByCategory[1].TotalInventoryValue, 1e-9)
}

func (s *InventoryE2ESuite) TestFilterAndSort() {
	// given
	s.create(productPayload{Name: "Robot", Category: "Toys", Price: 30, Quantity: 5})
	s.create(productPayload{Name: "kite", Category: "Outdoor", Price: 4, Quantity: 0})
	s.create(productPayload{Name: "Board game", Category: "Toys", Price: 20, Quantity: 2})
	s.create(productPayload{Name: "Tent", Category: "Outdoor", Price: 120, Quantity: 1})

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "name substring ignores case", query: "?name=O", expected: []string{"Robot", "Board game"}},
		{name: "single category", query: "?category=Outdoor", expected: []string{"kite", "Tent"}},
		{name: "in stock only", query: "?inStock=true", expected: []string{"Robot", "Board game", "Tent"}},
		{name: "out of stock only", query: "?inStock=false", expected: []string{"kite"}},
		{name: "sort by price", query: "?sort=price", expected: []string{"kite", "Board game", "Robot", "Tent"}},
		{name: "sort by name descending", query: "?sort=name&order=desc", expected: []string{"Tent", "Robot", "kite", "Board game"}},
		{name: "id descending", query: "?order=desc", expected: []string{"Tent", "Board game", "kite", "Robot"}},
		{name: "combined", query: "?category=Toys&category=Outdoor&inStock=true&sort=price&order=desc", expected: []string{"Tent", "Robot", "Board game"}},
		{name: "no match", query: "?name=zzz", expected: []string{}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, names(s.list(tc.query)))
		})
	}

	_, code := s.doRequest(http.MethodGet, productURL+"?sort=colour", nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *InventoryE2ESuite) TestCategories() {
	// given
	s.create(productPayload{Name: "Robot", Category: "Toys", Price: 30, Quantity: 5})
	s.create(productPayload{Name: "Tent", Category: "Outdoor", Price: 120, Quantity: 0})
	s.create(productPayload{Name: "Mystery", Price: 1, Quantity: 1})

	// when
	body, code := s.doRequest(http.MethodGet, productURL+"/categories", nil)

	// then
	s.Equal(http.StatusOK, code)
	s.JSONEq(`["Outdoor","Toys"]`, string(body))
}

func (s *InventoryE2ESuite) TestValidation() {
	testCases := []struct {
		name    string
		payload any
	}{
		{name: "missing name", payload: map[string]any{"price": 1, "quantity": 1}},
		{name: "missing price", payload: map[string]any{"name": "x", "quantity": 1}},
		{name: "missing quantity", payload: map[string]any{"name": "x", "price": 1}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			body, code := s.doRequest(http.MethodPost, productURL, tc.payload)
			s.Equal(http.StatusBadRequest, code)
			s.Contains(string(body), "validation_errors")
		})
	}
	s.Empty(s.list(""))
}

func (s *InventoryE2ESuite) TestConcurrentCreates() {
	// given
	const clients = 10
	const perClient = 20
	var wg sync.WaitGroup

	// when
	for c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perClient {
				payload, _ := json.Marshal(productPayload{Name: fmt.Sprintf("p-%d-%d", c, i), Category: "Bulk", Price: 1, Quantity: 1})
				resp, err := s.httpClient.Post(s.server.URL+productURL, "application/json", bytes.NewReader(payload))
				if !assert.NoError(s.T(), err) {
					return
				}
				_ = resp.Body.Close()
				assert.Equal(s.T(), http.StatusCreated, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	// then
	list := s.list("")
	s.Require().Len(list, clients*perClient)
	for i, p := range list {
		s.Equal(int64(i+1), p.ID)
	}
	s.Equal(clients*perClient, s.summary().TotalInStock)
}

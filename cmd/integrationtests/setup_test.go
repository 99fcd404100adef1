package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"barter-exchange/internal/backend"
	barter "barter-exchange/internal/barterService"
	"barter-exchange/internal/equity"
	"barter-exchange/internal/idempotency"
	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"barter-exchange/internal/server"
	"barter-exchange/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// remoteVerdict is the evaluator's camelCase wire form
type remoteVerdict struct {
	IsFair               bool    `json:"isFair"`
	Message              string  `json:"message"`
	DifferencePercentage float64 `json:"differencePercentage"`
}

// fakeBackend serves the product catalog and value comparison the exchange consumes
type fakeBackend struct {
	mu       sync.Mutex
	products map[string]model.Product
	verdicts map[string]remoteVerdict
	failing  bool
	server   *httptest.Server
}

func newFakeBackend(t *testing.T, products ...model.Product) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{products: map[string]model.Product{}, verdicts: map[string]remoteVerdict{}}
	for _, p := range products {
		fb.products[p.ProductID] = p
	}

	router := gin.New()
	router.GET("/products/:id", fb.getProduct)
	router.GET("/products", fb.listProducts)
	router.GET("/barter/value-comparison", fb.compare)

	fb.server = httptest.NewServer(router)
	t.Cleanup(fb.server.Close)
	return fb
}

func toRemote(p model.Product) gin.H {
	return gin.H{
		"id":       p.ProductID,
		"ownerId":  p.OwnerID,
		"name":     p.Name,
		"price":    p.Price,
		"quantity": model.Quantity{Amount: p.Stock, Unit: p.Unit}.String(),
		"tradable": p.Tradable,
	}
}

func (fb *fakeBackend) getProduct(c *gin.Context) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	p, ok := fb.products[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toRemote(p)})
}

func (fb *fakeBackend) listProducts(c *gin.Context) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	out := []gin.H{}
	for _, p := range fb.products {
		if owner := c.Query("ownerId"); owner != "" && p.OwnerID != owner {
			continue
		}
		out = append(out, toRemote(p))
	}
	c.JSON(http.StatusOK, out)
}

func (fb *fakeBackend) compare(c *gin.Context) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.failing {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "valuation model offline"})
		return
	}
	p1, p2 := c.Query("product1Id"), c.Query("product2Id")
	if _, ok := fb.products[p1]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	if _, ok := fb.products[p2]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		return
	}
	if v, ok := fb.verdicts[p1+"|"+p2]; ok {
		c.JSON(http.StatusOK, v)
		return
	}
	c.JSON(http.StatusOK, remoteVerdict{IsFair: true, Message: "fair trade", DifferencePercentage: 5})
}

// SetVerdict fixes the evaluator's answer for one ordered pair
func (fb *fakeBackend) SetVerdict(offered, requested string, v remoteVerdict) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.verdicts[offered+"|"+requested] = v
}

func (fb *fakeBackend) SetFailing(failing bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failing = failing
}

// TestEnv is the full HTTP stack backed by a fake remote catalog and evaluator
type TestEnv struct {
	Router   *gin.Engine
	Backend  *fakeBackend
	Store    *repository.MemoryRepo
	sessions *session.Manager
}

func defaultProducts() []model.Product {
	return []model.Product{
		{ProductID: "potatoes", OwnerID: "alice", Name: "Potatoes", Price: 0.8, Stock: 40, Unit: "kg", Tradable: true},
		{ProductID: "apples", OwnerID: "alice", Name: "Apples", Price: 1.2, Stock: 25, Unit: "kg", Tradable: true},
		{ProductID: "tomatoes", OwnerID: "bob", Name: "Tomatoes", Price: 2.5, Stock: 10, Unit: "kg", Tradable: true},
		{ProductID: "tractor", OwnerID: "bob", Name: "Tractor", Price: 12000, Stock: 1, Unit: "pcs", Tradable: false},
		{ProductID: "honey", OwnerID: "carol", Name: "Honey", Price: 9, Stock: 12, Unit: "jar", Tradable: true},
	}
}

// SetupTestEnv wires the router against remote backends served by a fakeBackend.
func SetupTestEnv(t *testing.T, products ...model.Product) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if len(products) == 0 {
		products = defaultProducts()
	}
	fb := newFakeBackend(t, products...)

	catalog, err := backend.NewCatalogClient(fb.server.URL, 2*time.Second)
	require.NoError(t, err)
	evaluator, err := backend.NewEquityClient(fb.server.URL, 2*time.Second)
	require.NoError(t, err)

	sessions, err := session.NewManager(session.Config{SecretKey: "integration-secret", Issuer: "barter-exchange", TokenTTL: time.Hour})
	require.NoError(t, err)

	idem, err := idempotency.Open(filepath.Join(t.TempDir(), "idempotency.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idem.Close() })

	store := repository.NewMemoryRepo()
	router := server.SetupRouter(server.Dependencies{
		Barter:      barter.NewBarterService(store, catalog, evaluator, equity.DefaultPolicy()),
		Catalog:     catalog,
		Sessions:    sessions,
		Idempotency: idem,
	})

	return &TestEnv{Router: router, Backend: fb, Store: store, sessions: sessions}
}

// Token issues a bearer token for userID
func (e *TestEnv) Token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.sessions.Issue(model.Session{UserID: userID})
	require.NoError(t, err)
	return token
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, e *TestEnv, method, url, user string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	token := ""
	if user != "" {
		token = e.Token(t, user)
	}
	w := ExecuteRequest(t, e.Router, method, url, token, body, nil)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// testContext mirrors testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

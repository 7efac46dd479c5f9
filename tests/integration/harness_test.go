package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	billingapp "github.com/salesdesk/backend/internal/application/billing"
	catalogapp "github.com/salesdesk/backend/internal/application/catalog"
	identityapp "github.com/salesdesk/backend/internal/application/identity"
	partnerapp "github.com/salesdesk/backend/internal/application/partner"
	"github.com/salesdesk/backend/internal/domain/shared"
	"github.com/salesdesk/backend/internal/infrastructure/auth"
	"github.com/salesdesk/backend/internal/infrastructure/cache"
	"github.com/salesdesk/backend/internal/infrastructure/config"
	"github.com/salesdesk/backend/internal/infrastructure/identity"
	"github.com/salesdesk/backend/internal/infrastructure/keymgmt"
	"github.com/salesdesk/backend/internal/infrastructure/mail"
	"github.com/salesdesk/backend/internal/infrastructure/persistence"
	"github.com/salesdesk/backend/internal/infrastructure/receipt"
	"github.com/salesdesk/backend/internal/infrastructure/storage"
	"github.com/salesdesk/backend/internal/interfaces/http/handler"
	"github.com/salesdesk/backend/internal/interfaces/http/middleware"
	"github.com/salesdesk/backend/internal/interfaces/http/router"
)

// TestServer wires the full HTTP stack over a containerized database. The
// cache, object store, mail sender and identity provider are in-memory so
// tests can run without external services and assert on their contents.
type TestServer struct {
	DB       *TestDB
	Engine   *gin.Engine
	Storage  *storage.MemoryStorage
	Identity *fakeIdentityProvider
	JWT      *auth.JWTService

	// Token authenticates requests issued through Request. It belongs to
	// a user minted directly from the JWT service, outside the provider.
	Token string

	SaleService *billingapp.SaleService
}

// NewTestServer builds the API server the way the composition root does,
// substituting in-memory implementations for the AWS-backed providers.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testDB := NewTestDB(t)
	log := zap.NewNop()

	db := &persistence.Database{DB: testDB.DB}

	productRepo := persistence.NewGormProductRepository(testDB.DB)
	customerRepo := persistence.NewGormCustomerRepository(testDB.DB)
	billRepo := persistence.NewGormBillRepository(testDB.DB)

	store := cache.NewMemoryStore()
	decoratorCfg := cache.DecoratorConfig{
		Store:  store,
		TTL:    time.Minute,
		Logger: log,
	}
	cachedProducts := cache.NewCachedProductRepository(productRepo, decoratorCfg)
	cachedCustomers := cache.NewCachedCustomerRepository(customerRepo, decoratorCfg)
	cachedBills := cache.NewCachedBillRepository(billRepo, decoratorCfg)

	encryptor, err := keymgmt.NewLocalEncryptor("integration-test-passphrase")
	require.NoError(t, err, "Failed to create field encryptor")

	renderer, err := receipt.NewEngine(config.ReceiptConfig{
		CompanyName: "Salesdesk Test",
		Currency:    "USD",
	})
	require.NoError(t, err, "Failed to create receipt engine")

	objectStore := storage.NewMemoryStorage("receipts-test")
	mailer := mail.NewNoopSender(log)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-access-secret-0000000000",
		RefreshSecret:          "integration-test-refresh-secret-000000000",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "salesdesk-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	idp := newFakeIdentityProvider()

	productService := catalogapp.NewProductService(cachedProducts, log)
	customerService := partnerapp.NewCustomerService(cachedCustomers, encryptor, log)
	billService := billingapp.NewBillService(cachedBills, cachedCustomers, cachedProducts, renderer, receipt.DisabledPDFRenderer{}, log)
	saleService := billingapp.NewSaleService(
		cachedCustomers, productRepo, billRepo, db,
		cachedBills, cachedProducts,
		renderer, objectStore, mailer, log,
	)
	authService := identityapp.NewAuthService(idp, jwtService, blacklist, log)

	require.NoError(t, handler.SetupValidator(), "Failed to register request validators")

	handlers := router.Handlers{
		Products:  handler.NewProductHandler(productService),
		Customers: handler.NewCustomerHandler(customerService),
		Bills:     handler.NewBillHandler(billService),
		Sales:     handler.NewSaleHandler(saleService),
		Auth:      handler.NewAuthHandler(authService),
		System:    handler.NewSystemHandler(db, store),
	}

	engine := gin.New()

	jwtAuth := middleware.JWT(middleware.JWTConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths:      middleware.DefaultJWTSkipPaths(),
		Logger:         log,
	})

	router.RegisterSystem(engine, handlers.System)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtAuth)
	router.RegisterAll(r, handlers)
	r.Setup()
	router.RegisterFallbacks(engine)

	pair, err := jwtService.GenerateTokenPair("test-subject", "tester@example.com", "provider-refresh-test")
	require.NoError(t, err, "Failed to mint test token")

	return &TestServer{
		DB:          testDB,
		Engine:      engine,
		Storage:     objectStore,
		Identity:    idp,
		JWT:         jwtService,
		Token:       pair.AccessToken,
		SaleService: saleService,
	}
}

// Request issues a JSON request authenticated as the harness's test user.
func (ts *TestServer) Request(method, path string, body interface{}) *httptest.ResponseRecorder {
	return ts.RequestWithToken(method, path, body, ts.Token)
}

// RequestWithToken issues a JSON request with an explicit bearer token.
// An empty token sends no Authorization header.
func (ts *TestServer) RequestWithToken(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.Engine.ServeHTTP(w, req)
	return w
}

// createProduct seeds a product through the API and returns its response
func (ts *TestServer) createProduct(t *testing.T, name, price string, stock int) catalogapp.ProductResponse {
	t.Helper()

	w := ts.Request("POST", "/api/v1/products", map[string]interface{}{
		"name":  name,
		"price": price,
		"stock": stock,
	})
	require.Equalf(t, 201, w.Code, "Failed to seed product: %s", w.Body.String())

	var product catalogapp.ProductResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	return product
}

// createCustomer seeds a customer through the API and returns its response
func (ts *TestServer) createCustomer(t *testing.T, email, firstName, lastName string) partnerapp.CustomerResponse {
	t.Helper()

	w := ts.Request("POST", "/api/v1/customers", map[string]interface{}{
		"email":     email,
		"firstName": firstName,
		"lastName":  lastName,
	})
	require.Equalf(t, 201, w.Code, "Failed to seed customer: %s", w.Body.String())

	var customer partnerapp.CustomerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customer))
	return customer
}

// decodeError unmarshals the error envelope from a response body
func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope), "Response is not an error envelope: %s", string(body))
	return envelope
}

// errorEnvelope mirrors the wire shape of dto.ErrorResponse
type errorEnvelope struct {
	StatusCode int                    `json:"statusCode"`
	Status     string                 `json:"status"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// fakeConfirmCode is the confirmation code the fake provider accepts
const fakeConfirmCode = "123456"

// fakeIdentityProvider is an in-memory identity.Provider so the auth flow
// can be exercised without a real user pool.
type fakeIdentityProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
	nextID   int
}

type fakeAccount struct {
	subject   string
	password  string
	confirmed bool
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{accounts: make(map[string]*fakeAccount)}
}

func (p *fakeIdentityProvider) Register(ctx context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; ok {
		return "", shared.NewDuplicate("An account with this email already exists")
	}
	p.nextID++
	subject := fmt.Sprintf("local-%d", p.nextID)
	p.accounts[email] = &fakeAccount{subject: subject, password: password}
	return subject, nil
}

func (p *fakeIdentityProvider) Confirm(ctx context.Context, email, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		return shared.NewNotFound("Account not found")
	}
	if code != fakeConfirmCode {
		return shared.NewAuth("Invalid confirmation code")
	}
	account.confirmed = true
	return nil
}

func (p *fakeIdentityProvider) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok || account.password != password {
		return nil, shared.NewAuth("Invalid email or password")
	}
	if !account.confirmed {
		return nil, shared.NewAuth("Account is not confirmed")
	}
	return &identity.Session{
		Subject:      account.subject,
		Email:        email,
		AccessToken:  "provider-access-" + account.subject,
		RefreshToken: "provider-refresh-" + account.subject,
		ExpiresIn:    3600,
	}, nil
}

func (p *fakeIdentityProvider) Refresh(ctx context.Context, subject, refreshToken string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for email, account := range p.accounts {
		if account.subject != subject {
			continue
		}
		if refreshToken != "provider-refresh-"+subject {
			return nil, shared.NewAuth("Invalid refresh token")
		}
		// The fake does not rotate refresh tokens on renewal.
		return &identity.Session{
			Subject:     subject,
			Email:       email,
			AccessToken: "provider-access-renewed-" + subject,
			ExpiresIn:   3600,
		}, nil
	}
	return nil, shared.NewAuth("Unknown session")
}

var _ identity.Provider = (*fakeIdentityProvider)(nil)

package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/database"
	"github.com/casapps/cascontacts/src/internal/database/models"
	"github.com/casapps/cascontacts/src/internal/server"
)

// DefaultPassword is the password of every user made by TestDataManager
const DefaultPassword = "password123"

// TestSuite runs the whole API against an in-memory database
type TestSuite struct {
	suite.Suite

	// Core components
	DB         *gorm.DB
	Config     *viper.Viper
	Server     *server.Server
	Echo       *echo.Echo
	TestServer *httptest.Server

	// Test utilities
	TestData  *TestDataManager
	APIClient *APITestClient

	// Cleanup functions
	cleanupFuncs []func()
	mu           sync.RWMutex
}

// TestDataManager manages test data creation and cleanup
type TestDataManager struct {
	db *gorm.DB
	mu sync.Mutex
	n  int
}

// APITestClient provides utilities for API testing
type APITestClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewTestDB opens a private in-memory database with the full schema
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Suppress SQL logs in tests
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	// Every connection to :memory: is a new database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewTestConfig returns the configuration the suite runs with
func NewTestConfig() *viper.Viper {
	config := viper.New()
	config.SetDefault("app.name", "cascontacts")
	config.SetDefault("app.locale", "en")
	config.SetDefault("environment", "test")
	config.SetDefault("server.quiet", true)
	config.SetDefault("security.secret_key", "test-secret-key-for-testing-only-do-not-use-in-production")
	config.SetDefault("security.jwt.access_token_ttl", "2h")
	config.SetDefault("api.limit_per_page", 15)
	config.SetDefault("api.max_limit_per_page", 100)
	config.SetDefault("ratelimit.enabled", true)
	config.SetDefault("ratelimit.authenticated_api", 1000)
	config.SetDefault("ratelimit.anonymous_api", 100)
	config.SetDefault("cache.enabled", true)
	config.SetDefault("cache.ttl", "1m")
	return config
}

// SetupSuite initializes the test suite
func (s *TestSuite) SetupSuite() {
	s.Config = NewTestConfig()

	s.DB = NewTestDB(s.T())
	s.AddCleanup(func() {
		if sqlDB, err := s.DB.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s.setupServer()

	s.TestData = &TestDataManager{db: s.DB}
	s.APIClient = &APITestClient{
		baseURL:    s.TestServer.URL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// TearDownSuite cleans up the test suite
func (s *TestSuite) TearDownSuite() {
	s.mu.RLock()
	cleanupFuncs := make([]func(), len(s.cleanupFuncs))
	copy(cleanupFuncs, s.cleanupFuncs)
	s.mu.RUnlock()

	for i := len(cleanupFuncs) - 1; i >= 0; i-- {
		if cleanupFuncs[i] != nil {
			cleanupFuncs[i]()
		}
	}
}

// SetupTest starts every test from empty tables
func (s *TestSuite) SetupTest() {
	s.TestData.CleanupAll()
	s.APIClient.Logout()
}

// AddCleanup adds a cleanup function to be called during teardown
func (s *TestSuite) AddCleanup(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupFuncs = append(s.cleanupFuncs, fn)
}

// setupServer initializes test server
func (s *TestSuite) setupServer() {
	e := echo.New()
	srv := server.New(e, s.Config, s.DB, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	testServer := httptest.NewServer(e)

	s.Echo = e
	s.Server = srv
	s.TestServer = testServer

	s.AddCleanup(testServer.Close)
}

// Test Data Manager Methods

// CreateAccount creates an empty account
func (tm *TestDataManager) CreateAccount(t testing.TB) *models.Account {
	account := &models.Account{}
	require.NoError(t, tm.db.Create(account).Error)
	return account
}

// CreateUser creates a user with DefaultPassword in a new account
func (tm *TestDataManager) CreateUser(t testing.TB, locale string) *models.User {
	return tm.CreateUserInAccount(t, tm.CreateAccount(t), locale)
}

// CreateUserInAccount creates a user with DefaultPassword in account
func (tm *TestDataManager) CreateUserInAccount(t testing.TB, account *models.Account, locale string) *models.User {
	passwordHash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)

	tm.mu.Lock()
	tm.n++
	n := tm.n
	tm.mu.Unlock()

	user := &models.User{
		AccountID:    account.ID,
		Email:        fmt.Sprintf("user%d@example.com", n),
		FirstName:    fmt.Sprintf("User %d", n),
		PasswordHash: passwordHash,
		Locale:       locale,
	}
	require.NoError(t, tm.db.Create(user).Error)
	return user
}

// CreateTag creates a tag directly in the store
func (tm *TestDataManager) CreateTag(t testing.TB, user *models.User, name string) *models.Tag {
	tag := &models.Tag{AccountID: user.AccountID, Name: name}
	require.NoError(t, tm.db.Create(tag).Error)
	return tag
}

// CreateContact creates a contact directly in the store
func (tm *TestDataManager) CreateContact(t testing.TB, user *models.User, firstName string) *models.Contact {
	contact := &models.Contact{AccountID: user.AccountID, FirstName: firstName}
	require.NoError(t, tm.db.Create(contact).Error)
	return contact
}

// CleanupAll empties every table, children first
func (tm *TestDataManager) CleanupAll() {
	all := models.GetAllModels()
	for i := len(all) - 1; i >= 0; i-- {
		tm.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i])
	}
}

// API Test Client Methods

// Login authenticates with the test API
func (c *APITestClient) Login(email, password string) error {
	resp, err := c.POST("/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var loginResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}

	if accessToken, ok := loginResp["access_token"].(string); ok && accessToken != "" {
		c.authToken = accessToken
		return nil
	}

	return fmt.Errorf("no authentication token found in response")
}

// LoginAs logs in as user, failing the test on error
func (c *APITestClient) LoginAs(t testing.TB, user *models.User) {
	require.NoError(t, c.Login(user.Email, DefaultPassword))
}

// Logout clears the authentication token
func (c *APITestClient) Logout() {
	c.authToken = ""
}

// GET performs a GET request
func (c *APITestClient) GET(path string) (*http.Response, error) {
	return c.request(http.MethodGet, path, nil)
}

// POST performs a POST request
func (c *APITestClient) POST(path string, data interface{}) (*http.Response, error) {
	return c.request(http.MethodPost, path, data)
}

// PUT performs a PUT request
func (c *APITestClient) PUT(path string, data interface{}) (*http.Response, error) {
	return c.request(http.MethodPut, path, data)
}

// DELETE performs a DELETE request
func (c *APITestClient) DELETE(path string) (*http.Response, error) {
	return c.request(http.MethodDelete, path, nil)
}

// request performs HTTP request with authentication. A string or []byte
// payload is sent verbatim.
func (c *APITestClient) request(method, path string, data interface{}) (*http.Response, error) {
	var body io.Reader

	switch v := data.(type) {
	case nil:
	case string:
		body = bytes.NewReader([]byte(v))
	case []byte:
		body = bytes.NewReader(v)
	default:
		jsonData, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// DecodeJSON reads and closes the response body
func DecodeJSON(t testing.TB, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

// Test Assertions

// AssertAPIError asserts the status and numeric error code of a failure
func (s *TestSuite) AssertAPIError(resp *http.Response, expectedStatus, expectedErrorCode int) map[string]interface{} {
	assert.Equal(s.T(), expectedStatus, resp.StatusCode)

	var errorResp map[string]interface{}
	DecodeJSON(s.T(), resp, &errorResp)

	if expectedErrorCode != 0 {
		assert.EqualValues(s.T(), expectedErrorCode, errorResp["error_code"])
	}
	return errorResp
}

// AssertDatabaseCount asserts the count of records in database
func (s *TestSuite) AssertDatabaseCount(model interface{}, expectedCount int64) {
	var count int64
	err := s.DB.Model(model).Count(&count).Error
	require.NoError(s.T(), err)
	assert.Equal(s.T(), expectedCount, count)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newRouter returns a router whose requests are authenticated as userID with role.
func newRouter(userID uint, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	})
	return router
}

func perform(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

type MockCatalog struct {
	GetProductByIDFunc func(ctx context.Context, id uint) (*models.Product, error)
}

func (m *MockCatalog) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return m.GetProductByIDFunc(ctx, id)
}

func catalogOf(products ...models.Product) *MockCatalog {
	return &MockCatalog{GetProductByIDFunc: func(ctx context.Context, id uint) (*models.Product, error) {
		for i := range products {
			if products[i].ID == id {
				p := products[i]
				return &p, nil
			}
		}
		return nil, repository.ErrNotFound
	}}
}

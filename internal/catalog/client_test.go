package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/storefront/internal/catalog"
	"github.com/drstein77/storefront/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return catalog.NewClient(srv.URL, 2*time.Second, logger.Logger{})
}

func TestListProductsComputesSkip(t *testing.T) {
	var gotLimit, gotSkip string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products", r.URL.Path)
		gotLimit = r.URL.Query().Get("limit")
		gotSkip = r.URL.Query().Get("skip")
		w.Write([]byte(`{"products":[{"id":1,"title":"mug","price":9.99}],"total":194}`))
	})

	page, err := c.ListProducts(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, "10", gotLimit)
	assert.Equal(t, "20", gotSkip)
	assert.Equal(t, 194, page.Total)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "mug", page.Products[0].Title)
}

func TestSearchProductsEscapesQuery(t *testing.T) {
	var gotQ string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/search", r.URL.Path)
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"products":[],"total":0}`))
	})

	_, err := c.SearchProducts(context.Background(), "red mug & saucer", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "red mug & saucer", gotQ)
}

func TestGetProductNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Product with id '9999' not found"}`, http.StatusNotFound)
	})

	_, err := c.GetProduct(context.Background(), 9999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetProductSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/3", r.URL.Path)
		w.Write([]byte(`{"id":3,"title":"lamp","price":49.5,"discountPercentage":12.5}`))
	})

	p, err := c.GetProduct(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID)
	assert.InDelta(t, 12.5, p.DiscountPercentage, 1e-9)
}

func TestNonSuccessStatusIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	})

	_, err := c.ListProducts(context.Background(), 0, 10)
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusServiceUnavailable, ne.Status)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := catalog.NewClient(srv.URL, time.Second, logger.Logger{})
	srv.Close()

	_, err := c.ListProducts(context.Background(), 0, 10)
	var ne *catalog.NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [`))
	})

	_, err := c.ListProducts(context.Background(), 0, 10)
	var ne *catalog.NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestListCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/categories", r.URL.Path)
		w.Write([]byte(`[{"slug":"beauty","name":"Beauty","url":"https://dummyjson.com/products/category/beauty"}]`))
	})

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Beauty", categories[0].Name)
	assert.Contains(t, categories[0].URL, "/products/category/beauty")
}

func TestListByCategoryAppendsPaging(t *testing.T) {
	var gotPath, gotLimit, gotSkip string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		gotSkip = r.URL.Query().Get("skip")
		w.Write([]byte(`{"products":[],"total":0}`))
	}))
	defer srv.Close()
	c := catalog.NewClient(srv.URL, time.Second, logger.Logger{})

	// the category URL comes verbatim from a Category record
	_, err := c.ListByCategory(context.Background(), srv.URL+"/products/category/beauty", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "/products/category/beauty", gotPath)
	assert.Equal(t, "10", gotLimit)
	assert.Equal(t, "10", gotSkip)
}

func TestContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListProducts(ctx, 0, 10)
	var ne *catalog.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || ne.Err != nil)
}

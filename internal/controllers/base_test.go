package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drstein77/storefront/internal/catalog"
	"github.com/drstein77/storefront/internal/controllers"
	"github.com/drstein77/storefront/internal/logger"
	"github.com/drstein77/storefront/internal/models"
	"github.com/drstein77/storefront/internal/storage"
)

// fakeStorage records calls and plays back canned state.
type fakeStorage struct {
	state models.State
	cart  models.CartView

	fetchErr    error
	fetchedPage int
	added       []models.Product
	reduced     []int
	removed     []int
	cleared     bool
	searched    []string
	filter      models.Filter
	pingOK      bool
}

func (f *fakeStorage) FetchProducts(_ context.Context, page int) error {
	f.fetchedPage = page
	return f.fetchErr
}

func (f *fakeStorage) FetchCategories(context.Context) error { return f.fetchErr }

func (f *fakeStorage) FetchProduct(_ context.Context, id int) (*models.Product, error) {
	for i := range f.state.Products {
		if f.state.Products[i].ID == id {
			return &f.state.Products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeStorage) SetFilter(_ context.Context, filter models.Filter) error {
	f.filter = filter
	return f.fetchErr
}

func (f *fakeStorage) SearchDebounced(q string)   { f.searched = append(f.searched, q) }
func (f *fakeStorage) AddToCart(p models.Product) { f.added = append(f.added, p) }
func (f *fakeStorage) ReduceQuantity(id int)      { f.reduced = append(f.reduced, id) }
func (f *fakeStorage) RemoveFromCart(id int)      { f.removed = append(f.removed, id) }
func (f *fakeStorage) ClearCart()                 { f.cleared = true }
func (f *fakeStorage) CartView() models.CartView  { return f.cart }
func (f *fakeStorage) Snapshot() models.State     { return f.state }
func (f *fakeStorage) Ping(context.Context) bool  { return f.pingOK }

func newTestServer(t *testing.T, fs *fakeStorage) *httptest.Server {
	t.Helper()
	h := controllers.NewBaseController(context.Background(), fs, logger.Logger{})
	srv := httptest.NewServer(h.Route())
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProductsTriggersFetch(t *testing.T) {
	fs := &fakeStorage{state: models.State{Total: 20}}
	srv := newTestServer(t, fs)

	resp, err := http.Get(srv.URL + "/api/v0/products?page=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, fs.fetchedPage)

	var state models.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, 20, state.Total)
}

func TestGetProductsInFlightStillReturnsState(t *testing.T) {
	fs := &fakeStorage{fetchErr: storage.ErrFetchInFlight}
	srv := newTestServer(t, fs)

	resp, err := http.Get(srv.URL + "/api/v0/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetProductsBadPage(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{})

	resp, err := http.Get(srv.URL + "/api/v0/products?page=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProductsUpstreamFailure(t *testing.T) {
	fs := &fakeStorage{fetchErr: &catalog.NetworkError{URL: "http://x", Status: 503}}
	srv := newTestServer(t, fs)

	resp, err := http.Get(srv.URL + "/api/v0/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGetProductByID(t *testing.T) {
	fs := &fakeStorage{state: models.State{Products: []models.Product{{ID: 3, Title: "lamp"}}}}
	srv := newTestServer(t, fs)

	resp, err := http.Get(srv.URL + "/api/v0/products/3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, "lamp", p.Title)

	resp, err = http.Get(srv.URL + "/api/v0/products/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchArmsDebounce(t *testing.T) {
	fs := &fakeStorage{}
	srv := newTestServer(t, fs)

	resp, err := http.Get(srv.URL + "/api/v0/products/search?q=mug")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"mug"}, fs.searched)
}

func TestPutFilter(t *testing.T) {
	fs := &fakeStorage{}
	srv := newTestServer(t, fs)

	body := bytes.NewBufferString(`{"query":"","categoryUrl":"https://dummyjson.com/products/category/beauty"}`)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v0/filter", body)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, fs.filter.CategoryURL, "beauty")
}

func TestPutFilterConflictWhileLoading(t *testing.T) {
	fs := &fakeStorage{fetchErr: storage.ErrFetchInFlight}
	srv := newTestServer(t, fs)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v0/filter", bytes.NewBufferString(`{}`))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	fs := &fakeStorage{cart: models.CartView{Lines: []models.CartLine{}, Gross: 25, Net: 22.5}}
	srv := newTestServer(t, fs)

	// add
	resp, err := http.Post(srv.URL+"/api/v0/cart/items", "application/json",
		bytes.NewBufferString(`{"id":1,"title":"mug","price":10}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, fs.added, 1)
	assert.Equal(t, "mug", fs.added[0].Title)

	// reduce
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/v0/cart/items/1/reduce", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []int{1}, fs.reduced)

	// remove
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/v0/cart/items/1", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, []int{1}, fs.removed)

	// clear
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/v0/cart", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, fs.cleared)

	// totals come back with the view
	resp, err = http.Get(srv.URL + "/api/v0/cart")
	require.NoError(t, err)
	defer resp.Body.Close()
	var view models.CartView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.InDelta(t, 25, view.Gross, 1e-9)
	assert.InDelta(t, 22.5, view.Net, 1e-9)
}

func TestPostCartItemRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{})

	resp, err := http.Post(srv.URL+"/api/v0/cart/items", "application/json",
		bytes.NewBufferString(`not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v0/cart/items", "application/json",
		bytes.NewBufferString(`{"title":"no id"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{pingOK: true})
	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	srv = newTestServer(t, &fakeStorage{pingOK: false})
	resp, err = http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

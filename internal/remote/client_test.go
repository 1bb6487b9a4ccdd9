package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_DecodesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cart.js", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"item_count":3,"total_price":2550,"items":[{"id":111,"quantity":2,"title":"Widget","price":1000},{"id":222,"quantity":1,"title":"Gadget","price":550}]}`)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	snapshot, err := sut.Cart(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.ItemCount)
	assert.Equal(t, int64(2550), snapshot.TotalPrice)
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, int64(111), snapshot.Items[0].ID)
	assert.Equal(t, "Widget", snapshot.Items[0].Title)
}

func TestAddItems_SendsBatchBody(t *testing.T) {
	var received addRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/add.js", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		io.WriteString(w, `{"item_count":3,"total_price":2550,"items":[]}`)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	snapshot, err := sut.AddItems(context.Background(), []AddItem{
		{ID: 111, Quantity: 2},
		{ID: 222, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.ItemCount)
	require.Len(t, received.Items, 2)
	assert.Equal(t, AddItem{ID: 111, Quantity: 2}, received.Items[0])
	assert.Equal(t, AddItem{ID: 222, Quantity: 1}, received.Items[1])
}

func TestAddItems_PlatformErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"status":422,"message":"Cart Error","description":"All 2 Widget are in your cart."}`)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	_, err := sut.AddItems(context.Background(), []AddItem{{ID: 111, Quantity: 2}})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Cart Error", apiErr.Message)
	assert.Contains(t, apiErr.Description, "Widget")
	assert.Contains(t, apiErr.Error(), "Cart Error")
}

func TestAddItems_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream timed out")
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	_, err := sut.AddItems(context.Background(), []AddItem{{ID: 111, Quantity: 1}})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream timed out", apiErr.Message)
}

func TestClear_Success(t *testing.T) {
	cleared := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/clear.js", r.URL.Path)
		cleared = true
		io.WriteString(w, `{"item_count":0,"total_price":0,"items":[]}`)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	require.NoError(t, sut.Clear(context.Background()))
	assert.True(t, cleared)
}

func TestClear_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 5*time.Second)
	err := sut.Clear(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	sut := NewClient(server.URL, 50*time.Millisecond)
	_, err := sut.Cart(context.Background())
	require.Error(t, err)
}

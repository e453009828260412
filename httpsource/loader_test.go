package httpsource_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/httpsource"
	"github.com/iotaledger/hive.go/datasource/scheduler"
	"github.com/iotaledger/hive.go/runtime/options"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// newServer serves pages of 25 users and records the query of every request.
func newServer(t *testing.T, requests *atomic.Int32, queries chan<- url.Values) *httptest.Server {
	users := make([]user, 25)
	for i := range users {
		users[i] = user{ID: i + 1, Name: "user" + strconv.Itoa(i+1)}
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if queries != nil {
			queries <- r.URL.Query()
		}

		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		end := len(users)
		if limit > 0 {
			end = min(offset+limit, len(users))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results":    users[min(offset, len(users)):end],
			"totalCount": len(users),
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestRequestURL(t *testing.T) {
	requestURL, err := httpsource.RequestURL("http://localhost/users?tenant=a&offset=99", &collection.LoadOptions{
		Skip:       20,
		Take:       10,
		SearchText: "bob",
		Sort: []collection.Sort{
			{Selector: "name", Direction: collection.SortDescending},
			{Selector: "id", Direction: collection.SortAscending},
		},
	})
	require.NoError(t, err)

	parsed, err := url.Parse(requestURL)
	require.NoError(t, err)

	query := parsed.Query()
	require.Equal(t, "a", query.Get("tenant"))
	require.Equal(t, "20", query.Get("offset"))
	require.Equal(t, "10", query.Get("limit"))
	require.Equal(t, "bob", query.Get("search"))
	require.Equal(t, []string{"name:desc", "id:asc"}, query["sort"])

	requestURL, err = httpsource.RequestURL("http://localhost/users", &collection.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost/users?offset=0", requestURL)
}

func TestLoader_Fetch(t *testing.T) {
	var requests atomic.Int32
	queries := make(chan url.Values, 1)
	server := newServer(t, &requests, queries)

	loader, err := httpsource.New[user](server.URL+"/users", httpsource.WithHeader[user]("X-Tenant", "a"))
	require.NoError(t, err)

	result, err := loader.Fetch(context.Background(), &collection.LoadOptions{Skip: 20, Take: 10})
	require.NoError(t, err)

	require.Equal(t, "10", (<-queries).Get("limit"))
	require.Len(t, result.Results(), 5)
	require.Equal(t, 21, result.Results()[0].ID)

	totalCount, known := result.TotalCount()
	require.True(t, known)
	require.Equal(t, 25, totalCount)
}

func TestLoader_Cache(t *testing.T) {
	var requests atomic.Int32
	server := newServer(t, &requests, nil)

	loader, err := httpsource.New[user](server.URL+"/users", httpsource.WithCacheTTL[user](time.Minute))
	require.NoError(t, err)
	defer loader.Close()

	for range 3 {
		_, err := loader.Fetch(context.Background(), &collection.LoadOptions{Take: 10})
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, requests.Load())

	_, err = loader.Fetch(context.Background(), &collection.LoadOptions{Skip: 10, Take: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, requests.Load())

	loader.ClearCache()
	_, err = loader.Fetch(context.Background(), &collection.LoadOptions{Take: 10})
	require.NoError(t, err)
	require.EqualValues(t, 3, requests.Load())
}

func TestLoader_Errors(t *testing.T) {
	var requests atomic.Int32
	server := newServer(t, &requests, nil)

	loader, err := httpsource.New[user](server.URL+"/broken", httpsource.WithTimeout[user](time.Second))
	require.NoError(t, err)

	_, err = loader.Fetch(context.Background(), &collection.LoadOptions{})
	require.ErrorIs(t, err, httpsource.ErrUnexpectedStatus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loader.Fetch(ctx, &collection.LoadOptions{})
	require.ErrorIs(t, err, httpsource.ErrRequestFailed)
}

func TestLoader_ListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(` [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]`))
	}))
	defer server.Close()

	loader, err := httpsource.New[user](server.URL)
	require.NoError(t, err)

	result, err := loader.Fetch(context.Background(), &collection.LoadOptions{})
	require.NoError(t, err)
	require.False(t, result.IsPage())
	require.Equal(t, []user{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, result.Results())
}

func TestLoader_PagedCollection(t *testing.T) {
	var requests atomic.Int32
	server := newServer(t, &requests, nil)

	loader, err := httpsource.New[user](server.URL + "/users")
	require.NoError(t, err)

	s := scheduler.New(t.Name())
	t.Cleanup(s.Shutdown)

	p := collection.NewPaged(loader.Loader(),
		collection.WithScheduler[user](s),
		collection.WithPageSize[user](10),
		collection.WithPageIndex[user](20),
		collection.WithInitialLoad[user](false),
	)
	defer p.Dispose()

	p.Load()
	require.Eventually(t, func() bool { return p.FirstLoaded().WasTriggered() }, 1*time.Second, 10*time.Millisecond)

	require.Equal(t, 25, p.TotalCount())
	require.Len(t, p.PageItems(), 5)
	require.False(t, p.HasNextPage())
	require.EqualValues(t, 1, requests.Load())
}

// headerTransport marks every request it forwards.
type headerTransport struct {
	requests atomic.Int32
}

func (h *headerTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	h.requests.Add(1)

	request = request.Clone(request.Context())
	request.Header.Set("X-Transport", "custom")

	return http.DefaultTransport.RoundTrip(request)
}

func TestLoader_TimeoutKeepsClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Transport") != "custom" {
			w.WriteHeader(http.StatusForbidden)

			return
		}

		if r.URL.Query().Get("search") == "slow" {
			time.Sleep(500 * time.Millisecond)
		}

		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	transport := new(headerTransport)
	client := &http.Client{Transport: transport}

	for _, opts := range [][]options.Option[httpsource.Loader[user]]{
		{httpsource.WithClient[user](client), httpsource.WithTimeout[user](50 * time.Millisecond)},
		{httpsource.WithTimeout[user](50 * time.Millisecond), httpsource.WithClient[user](client)},
	} {
		loader, err := httpsource.New[user](server.URL, opts...)
		require.NoError(t, err)

		result, err := loader.Fetch(context.Background(), &collection.LoadOptions{})
		require.NoError(t, err)
		require.Empty(t, result.Results())

		_, err = loader.Fetch(context.Background(), &collection.LoadOptions{SearchText: "slow"})
		require.ErrorIs(t, err, httpsource.ErrRequestFailed)
	}

	require.EqualValues(t, 4, transport.requests.Load())
	require.Zero(t, client.Timeout)
}

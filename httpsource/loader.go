package httpsource

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v2"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

var (
	// ErrRequestFailed is returned if a page could not be requested.
	ErrRequestFailed = ierrors.New("request failed")

	// ErrUnexpectedStatus is returned if the endpoint answered with a non-2xx status code.
	ErrUnexpectedStatus = ierrors.New("unexpected status code")
)

// Loader serves the pages of a collection from an HTTP endpoint. The page is described by the offset, limit, sort and
// search query parameters and the response bodies are cached for a configurable duration.
type Loader[T any] struct {
	endpoint string
	client   *http.Client
	header   http.Header
	timeout  time.Duration
	cacheTTL time.Duration
	cache    *ttlcache.Cache
	logger   log.Logger
}

// New creates a new Loader for the given endpoint.
func New[T any](endpoint string, opts ...options.Option[Loader[T]]) (*Loader[T], error) {
	l := options.Apply(&Loader[T]{
		endpoint: endpoint,
		client:   http.DefaultClient,
		header:   make(http.Header),
		logger:   log.EmptyLogger,
	}, opts)

	if l.client == nil {
		l.client = http.DefaultClient
	}

	if l.timeout > 0 {
		client := *l.client
		client.Timeout = l.timeout
		l.client = &client
	}

	if l.cacheTTL > 0 {
		l.cache = ttlcache.NewCache()
		l.cache.SkipTTLExtensionOnHit(true)

		if err := l.cache.SetTTL(l.cacheTTL); err != nil {
			return nil, ierrors.Wrap(err, "unable to set the ttl of the response cache")
		}
	}

	return l, nil
}

// WithClient sets the HTTP client that is used for the requests.
func WithClient[T any](client *http.Client) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.client = client
	}
}

// WithTimeout sets the timeout of a single request. It is applied to a copy of the configured client.
func WithTimeout[T any](timeout time.Duration) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.timeout = timeout
	}
}

// WithHeader adds a header that is sent with every request.
func WithHeader[T any](key, value string) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.header.Add(key, value)
	}
}

// WithCacheTTL enables the response cache and sets the duration for which responses are reused.
func WithCacheTTL[T any](ttl time.Duration) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.cacheTTL = ttl
	}
}

// WithLogger sets the logger of the Loader.
func WithLogger[T any](logger log.Logger) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.logger = logger
	}
}

// Loader returns the collection.Loader that requests the pages on their own goroutine.
func (l *Loader[T]) Loader() collection.Loader[T] {
	return l.Load
}

// Load requests the page that is described by the given LoadOptions.
func (l *Loader[T]) Load(ctx context.Context, loadOptions *collection.LoadOptions) *future.Future[*collection.Result[T]] {
	return future.Go(ctx, func(ctx context.Context) (*collection.Result[T], error) {
		return l.Fetch(ctx, loadOptions)
	})
}

// Fetch requests the page that is described by the given LoadOptions and blocks until it was received.
func (l *Loader[T]) Fetch(ctx context.Context, loadOptions *collection.LoadOptions) (*collection.Result[T], error) {
	requestURL, err := RequestURL(l.endpoint, loadOptions)
	if err != nil {
		return nil, err
	}

	body, err := l.cachedBody(requestURL)
	if err != nil {
		return nil, err
	}

	if body == nil {
		if body, err = l.request(ctx, requestURL); err != nil {
			return nil, err
		}

		if l.cache != nil {
			if err := l.cache.Set(requestURL, body); err != nil {
				l.logger.LogWarn("failed to cache response", "url", requestURL, "err", err)
			}
		}
	}

	return decodeResult[T](body)
}

// ClearCache drops all cached responses.
func (l *Loader[T]) ClearCache() {
	if l.cache == nil {
		return
	}

	if err := l.cache.Purge(); err != nil {
		l.logger.LogWarn("failed to purge response cache", "err", err)
	}
}

// Close stops the expiration of the cached responses.
func (l *Loader[T]) Close() error {
	if l.cache == nil {
		return nil
	}

	return l.cache.Close()
}

// cachedBody returns the cached response body of the given URL (nil if there is none).
func (l *Loader[T]) cachedBody(requestURL string) ([]byte, error) {
	if l.cache == nil {
		return nil, nil
	}

	cached, err := l.cache.Get(requestURL)
	if err != nil {
		if ierrors.Is(err, ttlcache.ErrNotFound) {
			return nil, nil
		}

		return nil, ierrors.Wrap(err, "unable to read response cache")
	}

	body, isBody := cached.([]byte)
	if !isBody {
		return nil, nil
	}

	l.logger.LogTrace("served page from cache", "url", requestURL)

	return body, nil
}

// request sends the request and returns the response body.
func (l *Loader[T]) request(ctx context.Context, requestURL string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.Join(ErrRequestFailed, err), "unable to create request")
	}

	request.Header = l.header.Clone()
	request.Header.Set("Accept", "application/json")

	response, err := l.client.Do(request)
	if err != nil {
		return nil, ierrors.Wrapf(ierrors.Join(ErrRequestFailed, err), "unable to request %s", requestURL)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.Join(ErrRequestFailed, err), "unable to read response body")
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, ierrors.Wrapf(ErrUnexpectedStatus, "%s answered with %d", requestURL, response.StatusCode)
	}

	l.logger.LogTrace("requested page", "url", requestURL, "bytes", len(body))

	return body, nil
}

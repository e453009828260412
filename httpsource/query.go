package httpsource

import (
	"net/url"

	"github.com/google/go-querystring/query"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
)

// queryParameters are the query parameters that describe a requested page.
type queryParameters struct {
	Offset int      `url:"offset"`
	Limit  int      `url:"limit,omitempty"`
	Sort   []string `url:"sort,omitempty"`
	Search string   `url:"search,omitempty"`
}

// newQueryParameters translates the given LoadOptions into query parameters. Sort criteria are encoded as
// "selector:direction".
func newQueryParameters(loadOptions *collection.LoadOptions) *queryParameters {
	return &queryParameters{
		Offset: loadOptions.Skip,
		Limit:  loadOptions.Take,
		Sort: lo.Map(loadOptions.Sort, func(criterion collection.Sort) string {
			return criterion.Selector + ":" + string(criterion.Direction)
		}),
		Search: loadOptions.SearchText,
	}
}

// RequestURL returns the URL that requests the page described by the given LoadOptions from the given endpoint. Query
// parameters of the endpoint are kept unless they are overridden by the page parameters.
func RequestURL(endpoint string, loadOptions *collection.LoadOptions) (string, error) {
	requestURL, err := url.Parse(endpoint)
	if err != nil {
		return "", ierrors.Wrapf(err, "invalid endpoint %q", endpoint)
	}

	pageValues, err := query.Values(newQueryParameters(loadOptions))
	if err != nil {
		return "", ierrors.Wrap(err, "unable to encode query parameters")
	}

	values := requestURL.Query()
	for key, entries := range pageValues {
		values[key] = entries
	}
	requestURL.RawQuery = values.Encode()

	return requestURL.String(), nil
}

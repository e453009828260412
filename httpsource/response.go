package httpsource

import (
	"bytes"
	"encoding/json"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/ierrors"
)

// ErrInvalidResponse is returned if a response body is neither a list nor a page object.
var ErrInvalidResponse = ierrors.New("invalid response")

// pageResponse is the body of a response that contains a single page of a larger list.
type pageResponse[T any] struct {
	Results    []T  `json:"results"`
	TotalCount *int `json:"totalCount"`
}

// decodeResult decodes a response body that either contains the complete list (a JSON array) or a single page (an
// object with the results and the total count).
func decodeResult[T any](body []byte) (*collection.Result[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ierrors.Wrap(ErrInvalidResponse, "empty body")
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, ierrors.Wrap(ierrors.Join(ErrInvalidResponse, err), "unable to decode list")
		}

		return collection.Items(items), nil
	case '{':
		var page pageResponse[T]
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, ierrors.Wrap(ierrors.Join(ErrInvalidResponse, err), "unable to decode page")
		}

		totalCount := -1
		if page.TotalCount != nil {
			totalCount = *page.TotalCount
		}

		return collection.Page(page.Results, totalCount), nil
	default:
		return nil, ierrors.Wrapf(ErrInvalidResponse, "unexpected body starting with %q", trimmed[0])
	}
}

package collection

import (
	"github.com/iotaledger/hive.go/ierrors"
)

var (
	// ErrDisposed is returned when a subscription is requested from a disposed collection.
	ErrDisposed = ierrors.New("collection is disposed")

	// ErrPageLoadFailed wraps the errors of a Loader.
	ErrPageLoadFailed = ierrors.New("failed to load page")

	// ErrProducerFailed wraps the errors of a Producer.
	ErrProducerFailed = ierrors.New("failed to produce raw data")
)

package loading

import (
	"github.com/iotaledger/hive.go/ds/reactive"
	"github.com/iotaledger/hive.go/stringify"
)

// Controller is a reference counted loading indicator. Every call to Show has to be balanced by a call to Hide and the
// indicator stays visible as long as at least one caller requested it, so overlapping operations result in a single
// busy period.
type Controller struct {
	// requests holds the number of Show calls that were not balanced by a Hide yet.
	requests reactive.Variable[int]

	// shown is derived from the requests and is true while there is at least one outstanding request.
	shown reactive.DerivedVariable[bool]
}

// NewController creates a new Controller that is initially hidden.
func NewController() *Controller {
	c := &Controller{
		requests: reactive.NewVariable[int](),
	}

	c.shown = reactive.NewDerivedVariable[bool](func(_ bool, requests int) bool {
		return requests > 0
	}, c.requests)

	return c
}

// Show registers a new request for the loading indicator.
func (c *Controller) Show() {
	c.requests.Compute(func(requests int) int {
		return requests + 1
	})
}

// Hide releases a request for the loading indicator (calls without an outstanding request are ignored).
func (c *Controller) Hide() {
	c.requests.Compute(func(requests int) int {
		return max(requests-1, 0)
	})
}

// IsShown returns true if the loading indicator is currently visible.
func (c *Controller) IsShown() bool {
	return c.shown.Get()
}

// Shown returns the observable visibility of the loading indicator.
func (c *Controller) Shown() reactive.ReadableVariable[bool] {
	return c.shown
}

// OnChange registers a callback that is triggered whenever the visibility of the loading indicator changes.
//
// The callback is executed synchronously by the caller of Show or Hide and must not call Show or Hide itself.
func (c *Controller) OnChange(callback func(shown bool)) (unsubscribe func()) {
	return c.shown.OnUpdate(func(_, shown bool) {
		callback(shown)
	})
}

// String returns a human-readable version of the Controller.
func (c *Controller) String() string {
	return stringify.Struct("loading.Controller",
		stringify.NewStructField("Requests", c.requests.Get()),
		stringify.NewStructField("Shown", c.shown.Get()),
	)
}

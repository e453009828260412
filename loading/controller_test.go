package loading_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/loading"
)

func TestController_Coalescing(t *testing.T) {
	controller := loading.NewController()

	var transitions []bool
	unsubscribe := controller.OnChange(func(shown bool) {
		transitions = append(transitions, shown)
	})
	defer unsubscribe()

	require.False(t, controller.IsShown())

	controller.Show()
	controller.Show()
	require.True(t, controller.IsShown())

	controller.Hide()
	require.True(t, controller.IsShown())

	controller.Hide()
	require.False(t, controller.IsShown())

	require.Equal(t, []bool{true, false}, transitions)
}

func TestController_HideWithoutShow(t *testing.T) {
	controller := loading.NewController()

	controller.Hide()
	controller.Hide()
	require.False(t, controller.IsShown())

	controller.Show()
	require.True(t, controller.IsShown())
	require.True(t, controller.Shown().Get())

	controller.Hide()
	require.False(t, controller.Shown().Get())
}

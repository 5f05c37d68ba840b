package gridshadow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseStage(t *testing.T) {
	app := NewAppBuilder().Build()
	before := Stage{Name: "BeforeQueue"}
	after := Stage{Name: "AfterQueue"}

	app.UseStage(before, BeforeStage(Queue))
	app.UseStage(after, AfterStage(Queue))

	assert.Equal(t, []string{"Extract", "Prepare", "PrepareBindGroups", "BeforeQueue", "Queue", "AfterQueue", "Render", "Cleanup"}, app.Stages())

	var ran []string
	app.UseSystem(System(func() { ran = append(ran, "after") }).InStage(after))
	app.UseSystem(System(func() { ran = append(ran, "before") }).InStage(before))
	require.NoError(t, app.RunFrame())
	assert.Equal(t, []string{"before", "after"}, ran)
}

func TestUseStage_Panics(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.PanicsWithValue(t, "Stage Missing not found", func() {
		app.UseStage(Stage{Name: "New"}, AfterStage(Stage{Name: "Missing"}))
	})
	assert.PanicsWithValue(t, "Stage Queue already exists", func() {
		app.UseStage(Queue, AfterStage(Render))
	})
}

func TestUseSystem_UnknownStagePanics(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.PanicsWithValue(t, "Stage Nowhere doesn't exist", func() {
		app.UseSystem(System(func() {}).InStage(Stage{Name: "Nowhere"}))
	})
}

func failingSystem() error { return errors.New("out of buffers") }

func TestSystemNames(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(failingSystem).InStage(Queue))
	app.UseSystem(System(func() {}).InStage(Queue).Named("noop"))

	assert.Equal(t, []string{"failingSystem", "noop"}, app.Systems(Queue))
	assert.Empty(t, app.Systems(Render))

	err := app.RunFrame()
	assert.EqualError(t, err, "stage Queue: failingSystem: out of buffers")
}

func TestSystem_NotAFunctionPanics(t *testing.T) {
	assert.Panics(t, func() { System(42) })
}

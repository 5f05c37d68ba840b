package gridshadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingModule struct {
	name string
	log  *[]string
}

func (m recordingModule) Install(app *App, cmd *Commands) {
	*m.log = append(*m.log, m.name)
}

func TestAppBuilder_DefaultStages(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Equal(t, []string{"Extract", "Prepare", "PrepareBindGroups", "Queue", "Render", "Cleanup"}, app.Stages())
	for _, s := range defaultStages {
		assert.Empty(t, app.Systems(s))
	}
}

func TestAppBuilder_InstallsOnBuildInOrder(t *testing.T) {
	var installed []string
	builder := NewAppBuilder().
		UseModule(recordingModule{name: "logging", log: &installed}).
		UseModule(recordingModule{name: "frame", log: &installed}, recordingModule{name: "render", log: &installed})

	assert.Empty(t, installed, "modules wait for Build")
	builder.Build()
	assert.Equal(t, []string{"logging", "frame", "render"}, installed)
}

func TestApp_UseModules(t *testing.T) {
	var installed []string
	app := NewAppBuilder().Build()
	app.UseModules(recordingModule{name: "shadow", log: &installed})
	assert.Equal(t, []string{"shadow"}, installed)
}

func TestAppBuilder_StagesAreNotShared(t *testing.T) {
	a := NewAppBuilder().Build()
	b := NewAppBuilder().Build()
	a.UseStage(Stage{Name: "Extra"}, AfterStage(Queue))
	assert.NotContains(t, b.Stages(), "Extra")
}

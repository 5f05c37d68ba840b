package gridshadow

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
)

type Stage struct {
	Name string
}

var (
	// Extract copies the scene into this frame's snapshot.
	Extract = Stage{Name: "Extract"}
	// Prepare builds views and acquires render targets.
	Prepare           = Stage{Name: "Prepare"}
	PrepareBindGroups = Stage{Name: "PrepareBindGroups"}
	Queue             = Stage{Name: "Queue"}
	Render            = Stage{Name: "Render"}
	Cleanup           = Stage{Name: "Cleanup"}
)

var defaultStages = []Stage{Extract, Prepare, PrepareBindGroups, Queue, Render, Cleanup}

// scheduledSystem is a system function with the name frame errors report.
type scheduledSystem struct {
	name string
	fn   systemFn
}

type systemScheduleBuilder struct {
	stage  Stage
	system scheduledSystem
}

// System schedules fn, by default in Prepare. fn takes pointers to resources
// or *Commands and may return an error.
func System(fn systemFn) systemScheduleBuilder {
	return systemScheduleBuilder{
		stage:  Prepare,
		system: scheduledSystem{name: systemName(fn), fn: fn},
	}
}

func (b systemScheduleBuilder) InStage(s Stage) systemScheduleBuilder {
	b.stage = s
	return b
}

// Named overrides the name derived from the function.
func (b systemScheduleBuilder) Named(name string) systemScheduleBuilder {
	b.system.name = name
	return b
}

// systemName is the unqualified function name, e.g. queueGridShadowsSystem.
func systemName(fn systemFn) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("System %T is not a function", fn))
	}
	name := runtime.FuncForPC(v.Pointer()).Name()
	return name[strings.LastIndex(name, ".")+1:]
}

type stagePosition int

const (
	stageBefore stagePosition = iota
	stageAfter
)

type stagePositionBuilder struct {
	position stagePosition
	target   Stage
}

func BeforeStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageBefore, target: s}
}

func AfterStage(s Stage) stagePositionBuilder {
	return stagePositionBuilder{position: stageAfter, target: s}
}

func (app *App) UseStage(stage Stage, where stagePositionBuilder) *App {
	if _, ok := app.systems[stage.Name]; ok {
		panic(fmt.Sprintf("Stage %v already exists", stage.Name))
	}
	idx := slices.IndexFunc(app.stages, func(s Stage) bool { return s.Name == where.target.Name })
	if idx < 0 {
		panic(fmt.Sprintf("Stage %v not found", where.target.Name))
	}
	if where.position == stageAfter {
		idx++
	}
	app.stages = slices.Insert(app.stages, idx, stage)
	app.systems[stage.Name] = nil
	return app
}

func (app *App) UseSystem(b systemScheduleBuilder) *App {
	systems, ok := app.systems[b.stage.Name]
	if !ok {
		panic(fmt.Sprintf("Stage %v doesn't exist", b.stage.Name))
	}
	app.systems[b.stage.Name] = append(systems, b.system)
	return app
}

// Stages lists stage names in run order.
func (app *App) Stages() []string {
	names := make([]string, len(app.stages))
	for i, s := range app.stages {
		names[i] = s.Name
	}
	return names
}

// Systems lists the names of the systems scheduled in stage, in run order.
func (app *App) Systems(stage Stage) []string {
	var names []string
	for _, s := range app.systems[stage.Name] {
		names = append(names, s.name)
	}
	return names
}

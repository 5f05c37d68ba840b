// Package gridshadow hosts the grid shadow renderer: an App owning shared
// resources and running systems stage by stage, once per frame.
package gridshadow

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type App struct {
	stages    []Stage
	systems   map[string][]scheduledSystem
	resources map[reflect.Type]any
	frames    uint64
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// RunFrame runs every stage once. The first system error stops the frame.
func (app *App) RunFrame() error {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			if err := app.callSystem(system.fn); err != nil {
				return fmt.Errorf("stage %s: %s: %w", stage.Name, system.name, err)
			}
		}
	}
	app.frames++
	return nil
}

// Run runs frames until ctx is done or, when frames is positive, that many
// frames have completed.
func (app *App) Run(ctx context.Context, frames int) error {
	for n := 0; frames <= 0 || n < frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := app.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

// Frames is the number of frames completed without error.
func (app *App) Frames() uint64 { return app.frames }

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	v, ok := r.(*T)
	return v, ok
}

func (app *App) callSystem(system systemFn) error {
	return app.callSystemInternal(system)
}

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfError    = reflect.TypeFor[error]()
)

func (app *App) callSystemInternal(system systemFn) error {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("System %s takes %s by value, want a pointer",
				runtime.FuncForPC(systemValue.Pointer()).Name(), argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}

	out := systemValue.Call(args)
	for _, v := range out {
		if v.Type() == typeOfError && !v.IsNil() {
			return v.Interface().(error)
		}
	}
	return nil
}

package gridshadow

// Commands is handed to modules and systems to change the App.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

func (cmd *Commands) UseStage(stage Stage, where stagePositionBuilder) *Commands {
	cmd.app.UseStage(stage, where)
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

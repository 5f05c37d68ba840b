package gridshadow

import "fmt"

// RendererTag records which GPU backend drives the render graph. An App has
// at most one.
type RendererTag struct {
	Name RendererName
}

// claimRenderer tags app with name, or reports the backend already holding it.
func claimRenderer(app *App, name RendererName) error {
	if tag, ok := Resource[RendererTag](app); ok {
		if tag.Name != name {
			return fmt.Errorf("multiple renderers installed: %s and %s", tag.Name, name)
		}
		return fmt.Errorf("renderer %s installed twice", name)
	}
	app.addResources(&RendererTag{Name: name})
	return nil
}

package main

import (
	"context"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
)

// window runs a node loop next to a fyne window. Closing the window stops
// the loop and cancelling the context closes the window.
type window struct {
	app    fyne.App
	window fyne.Window
}

// newWindow creates the application. Widgets must be created after it.
func newWindow(title string) *window {
	application := fyneapp.NewWithID("com.itohio.envlink")
	return &window{
		app:    application,
		window: application.NewWindow(title),
	}
}

// run shows content and blocks until loop returns or the window is closed.
func (w *window) run(ctx context.Context, content fyne.CanvasObject, loop func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.window.SetContent(content)
	w.window.SetOnClosed(cancel)

	errc := make(chan error, 1)
	go func() {
		errc <- loop(ctx)
		fyne.Do(w.app.Quit)
	}()

	w.window.ShowAndRun()
	cancel()
	return <-errc
}

package overlay

import (
	"strconv"
	"strings"

	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/internal/dispatcher"
	"github.com/vexlab/svr-debug/pkg/host"
)

// Register wires every overlay handler into the dispatcher. Export paths are
// logged; the high-frequency handlers are not.
func (o *Overlay) Register(d *dispatcher.Dispatcher) {
	d.Register(CommandToggleOverlay, o.HandleToggleOverlay)
	d.Register(CommandRecordSample, o.HandleRecordSample)
	d.Register(CommandExportCSV, o.HandleExportCSV, dispatcher.Logged())
	d.Register(CommandScreenshot, o.HandleScreenshot, dispatcher.Logged())
	d.Register(CommandExportScene, o.HandleExportScene, dispatcher.Logged())
	d.Register(CommandClearRecording, o.HandleClearRecording, dispatcher.Logged())
}

// Binder maps raw host input events to dispatcher commands according to the
// configured bindings. Unbound input resolves to nothing.
type Binder struct {
	cfg config.BindingsConfig
}

// NewBinder creates a binder from the configured bindings.
func NewBinder(cfg config.BindingsConfig) *Binder {
	return &Binder{cfg: cfg}
}

// Resolve translates an input event into a dispatcher event. The second
// return value is false when the input has no binding.
func (b *Binder) Resolve(in host.InputEvent) (dispatcher.Event, bool) {
	switch in.Kind {
	case host.KindKey:
		switch {
		case strings.EqualFold(in.Key, b.cfg.ToggleKey):
			return dispatcher.Event{Command: CommandToggleOverlay, Timestamp: in.Timestamp}, true
		case strings.EqualFold(in.Key, b.cfg.ClearKey):
			return dispatcher.Event{Command: CommandClearRecording, Timestamp: in.Timestamp}, true
		}
	case host.KindButton:
		args := []string{strconv.FormatUint(uint64(in.Device), 10)}
		switch in.Button {
		case b.cfg.RecordButton:
			return dispatcher.Event{Command: CommandRecordSample, Args: args, Timestamp: in.Timestamp}, true
		case b.cfg.ExportButton:
			return dispatcher.Event{Command: CommandExportCSV, Args: args, Timestamp: in.Timestamp}, true
		case b.cfg.ScreenshotButton:
			return dispatcher.Event{Command: CommandScreenshot, Args: args, Timestamp: in.Timestamp}, true
		case b.cfg.SceneButton:
			return dispatcher.Event{Command: CommandExportScene, Args: args, Timestamp: in.Timestamp}, true
		}
	}
	return dispatcher.Event{}, false
}

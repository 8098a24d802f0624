// Package progress wraps the console progress bar shown while trials run.
package progress

import (
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/minio/pkg/console"
)

// Bar is a console progress bar sized to the number of operations in a
// trial (object count times repeats).
type Bar struct {
	*pb.ProgressBar
}

// NewBar instantiates and starts a progress bar.
func NewBar(total int64) *Bar {
	// Progress bar specific theme customization.
	console.SetColor("Bar", color.New(color.FgGreen, color.Bold))

	bar := pb.New64(total)
	bar.SetRefreshRate(time.Millisecond * 125)
	bar.SetTemplateString(`{{counters . }} {{bar . }} {{percent . }} {{speed . }}`)
	bar.Start()

	return &Bar{ProgressBar: bar}
}

// SetCaption labels the bar with the operation it is tracking.
func (b *Bar) SetCaption(caption string) *Bar {
	b.ProgressBar.Set("prefix", caption+" ")
	return b
}

package cli

import (
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/Didstopia/ruffle-manager/internal/install"
	"github.com/Didstopia/ruffle-manager/internal/report"
)

// progressBar renders install download events as a byte progress bar and
// reports every extracted entry to the sink
type progressBar struct {
	out     io.Writer
	enabled bool
	sink    report.Sink
	target  string
	bar     *pb.ProgressBar
}

func newProgressBar(out io.Writer, enabled bool, sink report.Sink, target string) *progressBar {
	return &progressBar{out: out, enabled: enabled, sink: sink, target: target}
}

// Handle is an install.ProgressFunc
func (p *progressBar) Handle(ev install.Event) {
	switch ev.Kind {
	case install.EventDownload:
		if !p.enabled {
			return
		}
		if p.bar == nil {
			p.bar = pb.New64(ev.Total)
			p.bar.Set(pb.Bytes, true)
			p.bar.SetWriter(p.out)
			p.bar.Start()
		}
		p.bar.SetCurrent(ev.Bytes)
	case install.EventExtract:
		p.Finish()
		p.sink.Status(p.target, "Extracted "+ev.Entry)
	}
}

// Finish stops the bar if one is running
func (p *progressBar) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

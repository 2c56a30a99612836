package main

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cwsl/camsync/barcode"
)

// writeSummary prints a per-channel table followed by run totals
func writeSummary(w io.Writer, runID string, outcomes []ChannelOutcome) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	p.Fprintf(tw, "Run %s\n", runID)
	p.Fprintf(tw, "CHANNEL\tSTATUS\tRATE (Hz)\tMATCHES\tCODES\tUNPAIRED\tMALFORMED\tGAPS\n")

	var codes, diagnostics, failed int
	for _, o := range outcomes {
		if o.Result == nil {
			failed++
			status := o.Status
			if status == "" {
				status = "skipped"
			}
			p.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\n", o.Channel, status)
			continue
		}
		res := o.Result
		codes += len(res.Codes)
		diagnostics += len(res.Diagnostics)
		p.Fprintf(tw, "%s\t%s\t%.1f\t%d\t%d\t%d\t%d\t%d\n",
			o.Channel, o.Status, res.SampleRate, res.Matches, len(res.Codes),
			res.CountDiagnostics(barcode.UnpairedMarker),
			res.CountDiagnostics(barcode.MalformedInterval),
			res.CountDiagnostics(barcode.CycleGap))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := p.Fprintf(w, "%d channel(s), %d failed, %d code(s) decoded, %d diagnostic(s)\n",
		len(outcomes), failed, codes, diagnostics)
	return err
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/atinyakov/FloraFacts/internal/client/gallery"
	"github.com/atinyakov/FloraFacts/internal/client/session"
	"github.com/atinyakov/FloraFacts/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func renderResult(w io.Writer, r *session.Result) {
	renderPlant(w, r.Info)
}

func renderPlant(w io.Writer, p models.PlantInfo) {
	fmt.Fprintf(w, "%s\n%s\n\n", p.Name, p.ScientificName)
	fmt.Fprintf(w, "%s\n\n", p.Description)
	fmt.Fprintf(w, "Care instructions\n%s\n", p.CareInstructions)

	details := p.Details()
	if len(details) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, d := range details {
		fmt.Fprintf(w, "%s %s: %s\n", d.Symbol, d.Label, d.Value)
	}
}

func renderGallery(w io.Writer, items []gallery.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your gallery is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCIENTIFIC NAME\tSAVED")
	for _, it := range items {
		saved := it.Timestamp.Local().Format(timeLayout)
		if it.Pending {
			saved = "pending"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.PlantInfo.Name, it.PlantInfo.ScientificName, saved)
	}
	_ = tw.Flush()
}

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"spendings/internal/core"
	"spendings/internal/spendings"
)

var colorsOptions = map[string]color.Attribute{
	"red":       color.FgHiRed,
	"green":     color.FgGreen,
	"yellow":    color.FgYellow,
	"faint":     color.Faint,
	"underline": color.Underline,
	"bold":      color.Bold,
}

// ColorOutput wraps text in the named attributes. Unknown names are
// ignored. Output is plain when color is disabled.
func ColorOutput(text string, colorOptions ...string) string {
	attributes := []color.Attribute{}
	for _, option := range colorOptions {
		if o, ok := colorsOptions[option]; ok {
			attributes = append(attributes, o)
		}
	}
	c := color.New(attributes...)
	return c.Sprint(text)
}

// RenderState writes a snapshot: the error if any, the spendings table and
// the page footer.
func RenderState(w io.Writer, s spendings.State) error {
	if s.Loading {
		if _, err := fmt.Fprintln(w, ColorOutput("Loading...", "faint")); err != nil {
			return err
		}
	}
	if s.HasError() {
		if _, err := fmt.Fprintln(w, ColorOutput("Error: "+s.Error, "red", "bold")); err != nil {
			return err
		}
	}

	if err := RenderSpendings(w, s.Spendings); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, ColorOutput(fmt.Sprintf("Page %d of %d", s.CurrentPage, s.TotalPages), "bold"))
	return err
}

// RenderSpendings writes list as an aligned table.
func RenderSpendings(w io.Writer, list []core.Spending) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, ColorOutput("No spendings found", "yellow"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tCOUNT\tTYPE\tMODEL\tCREATED")
	for _, sp := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			sp.ID, sp.UserID, sp.Count.String(), sp.Type, sp.Model, createdLabel(sp.CreatedAt))
	}
	return tw.Flush()
}

// RenderSpending writes a single record as key/value lines.
func RenderSpending(w io.Writer, sp core.Spending) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "%s\t%d\n", ColorOutput("id:", "bold"), sp.ID)
	fmt.Fprintf(tw, "%s\t%d\n", ColorOutput("userid:", "bold"), sp.UserID)
	fmt.Fprintf(tw, "%s\t%s\n", ColorOutput("count:", "bold"), sp.Count.String())
	fmt.Fprintf(tw, "%s\t%s\n", ColorOutput("type:", "bold"), sp.Type)
	fmt.Fprintf(tw, "%s\t%s\n", ColorOutput("model:", "bold"), sp.Model)
	fmt.Fprintf(tw, "%s\t%s\n", ColorOutput("createdat:", "bold"), createdLabel(sp.CreatedAt))
	return tw.Flush()
}

// createdLabel shows the timestamp followed by a relative time when it
// parses.
func createdLabel(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	return fmt.Sprintf("%s (%s)", createdAt, humanize.Time(t))
}

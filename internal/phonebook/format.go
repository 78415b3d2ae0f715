package phonebook

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/vitaminmoo/mbim-tool/internal/mbim"
	"github.com/vitaminmoo/mbim-tool/internal/tui"
)

// Formatter renders phonebook results to stdout and error lines to stderr.
type Formatter struct {
	out       io.Writer
	errOut    io.Writer
	styles    tui.Styles
	errStyles tui.Styles
}

// NewFormatter returns a Formatter writing results to stdout and errors to
// stderr. Colors are used only where the writer supports them.
func NewFormatter(stdout, stderr io.Writer) *Formatter {
	return &Formatter{
		out:       stdout,
		errOut:    stderr,
		styles:    tui.NewStyles(lipgloss.NewRenderer(stdout)),
		errStyles: tui.NewStyles(lipgloss.NewRenderer(stderr)),
	}
}

func (f *Formatter) field(label, value string) {
	fmt.Fprintf(f.out, "  %s %s\n", f.styles.Label.Render(label+":"), f.styles.Value.Render(value))
}

// Configuration prints a phonebook configuration snapshot. Unrecognized
// states print as "unknown".
func (f *Formatter) Configuration(c mbim.PhonebookConfiguration) {
	state, ok := c.State.Name()
	if !ok {
		state = "unknown"
	}

	fmt.Fprintln(f.out, f.styles.Title.Render("Phonebook configuration retrieved:"))
	f.field("Phonebook state", state)
	f.field("Number of entries", strconv.FormatUint(uint64(c.TotalEntries), 10))
	f.field("Used entries", strconv.FormatUint(uint64(c.UsedEntries), 10))
	f.field("Max number length", strconv.FormatUint(uint64(c.MaxNumberLength), 10))
	f.field("Max name length", strconv.FormatUint(uint64(c.MaxNameLength), 10))
}

// Entries prints entries in the order given.
func (f *Formatter) Entries(entries []mbim.PhonebookEntry) {
	fmt.Fprintln(f.out, f.styles.Success.Render("Successfully read phonebook entry/entries"))
	fmt.Fprintf(f.out, "  %s %d\n", f.styles.Muted.Render("Phonebook entries count:"), len(entries))
	for _, e := range entries {
		fmt.Fprintf(f.out, "  %s %s\n",
			f.styles.Label.Render("Entry index:"),
			f.styles.Index.Render(strconv.FormatUint(uint64(e.Index), 10)))
		f.field("Number", e.Number)
		f.field("Name", e.Name)
	}
}

// Written confirms a write or update.
func (f *Formatter) Written() {
	fmt.Fprintln(f.out, f.styles.Success.Render("Phonebook entry successfully written/updated"))
}

// Deleted confirms a delete.
func (f *Formatter) Deleted() {
	fmt.Fprintln(f.out, f.styles.Success.Render("Phonebook entry/entries successfully deleted"))
}

// Errorf prints an "error: " line to stderr.
func (f *Formatter) Errorf(format string, args ...any) {
	fmt.Fprintln(f.errOut, f.errStyles.Error.Render("error: "+fmt.Sprintf(format, args...)))
}

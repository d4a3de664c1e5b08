package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/thoth/thoth/internal/models"
)

type palette struct {
	bold   *color.Color
	cyan   *color.Color
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	gray   *color.Color
}

// newPalette returns colors for w, disabled unless w is a terminal.
func newPalette(w io.Writer) palette {
	p := palette{
		bold:   color.New(color.Bold),
		cyan:   color.New(color.FgCyan, color.Bold),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		gray:   color.New(color.FgHiBlack),
	}
	if !isTerminal(w) {
		for _, c := range []*color.Color{p.bold, p.cyan, p.green, p.red, p.yellow, p.gray} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRunnables(w io.Writer, items []models.Runnable) {
	p := newPalette(w)
	if len(items) == 0 {
		p.gray.Fprintln(w, "No matches")
		return
	}
	for i, it := range items {
		p.cyan.Fprintf(w, "%2d. ", i+1)
		p.bold.Fprint(w, it.Name)
		p.gray.Fprintf(w, "  %s\n", it.Exec)
	}
}

// confirmAction asks on in for a yes/no answer.
func confirmAction(in io.Reader, out io.Writer) bool {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "Continue? [y/N]: ")

	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}

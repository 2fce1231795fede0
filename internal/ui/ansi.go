package ui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
	symWarn  = "!"
)

// Printer writes themed output. Colour is used only when Out is a
// terminal that supports it and neither NO_COLOR nor the mono theme
// turned it off.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	theme Theme
	color bool
}

// NewPrinter returns a Printer for the named theme.
func NewPrinter(out, errOut io.Writer, themeName string, noColor bool) *Printer {
	t, colorable := ThemeByName(themeName)
	color := colorable && !noColor &&
		termenv.NewOutput(out).EnvColorProfile() != termenv.Ascii
	return &Printer{Out: out, Err: errOut, theme: t, color: color}
}

// SetColor forces colour on or off.
func (p *Printer) SetColor(on bool) { p.color = on }

// Theme returns the active theme.
func (p *Printer) Theme() Theme { return p.theme }

// C wraps s in color when colour output is enabled.
func (p *Printer) C(color, s string) string {
	if !p.color || color == "" {
		return s
	}
	return color + s + reset
}

func (p *Printer) OK(msg string)   { fmt.Fprintln(p.Out, p.C(p.theme.Success, symCheck+" "+msg)) }
func (p *Printer) Fail(msg string) { fmt.Fprintln(p.Err, p.C(p.theme.Error, symCross+" "+msg)) }
func (p *Printer) Warn(msg string) { fmt.Fprintln(p.Err, p.C(p.theme.Pending, symWarn+" "+msg)) }

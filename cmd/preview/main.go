package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/inkwell/internal/render"
)

var (
	headingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	quoteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true).PaddingLeft(2).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true)
	listStyle      = lipgloss.NewStyle().PaddingLeft(2)
	imageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	rawStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	paragraphStyle = lipgloss.NewStyle()
)

// main prints a file's preview blocks to the terminal.
func main() {
	kinds := flag.Bool("kinds", false, "Prefix every block with its kind")
	flag.Parse()

	var (
		data []byte
		err  error
	)
	if flag.NArg() == 0 || flag.Arg(0) == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(flag.Arg(0))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading input:", err)
		os.Exit(1)
	}

	fmt.Print(format(render.Render(string(data)), *kinds))
}

func format(blocks []render.Block, kinds bool) string {
	var b strings.Builder
	for _, block := range blocks {
		line := styleBlock(block)
		if kinds {
			line = fmt.Sprintf("[%s] %s", block.Kind, line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func styleBlock(block render.Block) string {
	switch block.Kind {
	case render.Heading:
		return headingStyle.Render(block.Content)
	case render.Quote:
		return quoteStyle.Render(block.Content)
	case render.ListItem:
		return listStyle.Render("• " + block.Content)
	case render.Image:
		return imageStyle.Render("[image] " + block.Content)
	case render.RawHTML:
		return rawStyle.Render(block.Content)
	case render.Paragraph:
		return paragraphStyle.Render(block.Content)
	default:
		return ""
	}
}

package editor

import "strings"

// Command is one of the fixed formatting commands. The zero value is not a
// valid command and Apply treats it as a no-op.
type Command int

const (
	_ Command = iota
	Bold
	Italic
	Heading
	Quote
	List
	Center
	Justify

	commandCount
)

const (
	CenterOpen  = `<div style="text-align: center">`
	JustifyOpen = `<div style="text-align: justify">`
	AlignClose  = `</div>`

	// AlignMarker is what the renderer looks for to pass a line through as raw HTML.
	AlignMarker = `<div style=`
)

// rule describes how a command decorates the selection.
//
// caretBack is how far the caret is pulled back from the end of the inserted
// text when a placeholder was inserted, so typing lands in the placeholder.
type rule struct {
	name        string
	prefix      string
	suffix      string
	placeholder string
	// lineBlock commands must sit on their own line.
	lineBlock bool
	caretBack int
}

var rules = [commandCount]rule{
	Bold:    {name: "bold", prefix: "**", suffix: "**", placeholder: "Bold Text", caretBack: 2},
	Italic:  {name: "italic", prefix: "*", suffix: "*", placeholder: "Italic Text", caretBack: 1},
	Heading: {name: "heading", prefix: "## ", placeholder: "Heading", lineBlock: true, caretBack: 3},
	Quote:   {name: "quote", prefix: "> ", placeholder: "Quote text", lineBlock: true, caretBack: 2},
	List:    {name: "list", prefix: "- ", placeholder: "List item", lineBlock: true, caretBack: 2},
	Center:  {name: "center", prefix: CenterOpen, suffix: AlignClose, placeholder: "Centered text", caretBack: 30},
	Justify: {name: "justify", prefix: JustifyOpen, suffix: AlignClose, placeholder: "Justified text", caretBack: 31},
}

func (c Command) Valid() bool {
	return c > 0 && c < commandCount
}

func (c Command) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return rules[c].name
}

// Commands lists every valid command in toolbar order.
func Commands() []Command {
	cmds := make([]Command, 0, commandCount-1)
	for c := Bold; c < commandCount; c++ {
		cmds = append(cmds, c)
	}
	return cmds
}

// ParseCommand maps a command name to its Command. Unknown names report false.
func ParseCommand(name string) (Command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c := Bold; c < commandCount; c++ {
		if rules[c].name == name {
			return c, true
		}
	}
	return 0, false
}

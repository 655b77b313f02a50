package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// It describes the selected command, or the application when none is selected.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		node := ctx.Selected()
		if node == nil {
			node = ctx.Model.Node
		}

		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(AppName))
		sb.WriteString("\n")
		desc := node.Help
		if desc == "" {
			desc = ctx.Model.Help
		}
		sb.WriteString(helpDescStyle.Render(desc))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(usageLine(ctx.Model.Name, node))
		sb.WriteString("\n")

		cmds := getCommands(node)
		width := 0
		for _, c := range cmds {
			width = max(width, len(c.name))
		}
		rows := make([]helpRow, 0, len(cmds))
		for _, c := range cmds {
			rows = append(rows, helpRow{label: helpArgStyle.Render(fmt.Sprintf("%-*s", width, c.name)), help: c.help})
		}
		writeHelpSection(&sb, "Commands:", rows)

		rows = rows[:0]
		for _, arg := range getArguments(node) {
			rows = append(rows, helpRow{label: helpArgStyle.Render(arg.name), help: arg.help})
		}
		writeHelpSection(&sb, "Arguments:", rows)

		rows = rows[:0]
		for _, f := range getFlags(node) {
			r := helpRow{label: helpFlagStyle.Render(f.flags), help: f.help}
			if f.defaultVal != "" {
				r.note = helpDefaultStyle.Render("(default: " + f.defaultVal + ")")
			}
			rows = append(rows, r)
		}
		writeHelpSection(&sb, "Flags:", rows)

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type helpRow struct {
	label string
	help  string
	note  string
}

// writeHelpSection writes a titled block of rows. Empty sections are skipped.
func writeHelpSection(sb *strings.Builder, title string, rows []helpRow) {
	if len(rows) == 0 {
		return
	}
	sb.WriteString("\n" + helpSectionStyle.Render(title) + "\n")
	for _, r := range rows {
		line := "  " + r.label
		if r.help != "" {
			line += "  " + r.help
		}
		if r.note != "" {
			line += " " + r.note
		}
		sb.WriteString(line + "\n")
	}
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

// commandPath lists command names from the root down to node.
func commandPath(node *kong.Node) []string {
	var path []string
	for n := node; n != nil; n = n.Parent {
		if n.Type == kong.CommandNode {
			path = append([]string{n.Name}, path...)
		}
	}
	return path
}

func usageLine(app string, node *kong.Node) string {
	parts := append([]string{app}, commandPath(node)...)
	if len(getCommands(node)) > 0 {
		parts = append(parts, "<command>")
	}
	parts = append(parts, "[flags]")
	for _, arg := range node.Positional {
		parts = append(parts, arg.Summary())
	}
	return strings.Join(parts, " ")
}

func getCommands(node *kong.Node) []argument {
	var cmds []argument
	for _, child := range node.Children {
		if child.Type != kong.CommandNode || child.Hidden {
			continue
		}
		cmds = append(cmds, argument{name: child.Name, help: child.Help})
	}
	return cmds
}

func getArguments(node *kong.Node) []argument {
	var args []argument
	for _, arg := range node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

// getFlags returns the flags of node and of every parent, nearest first.
func getFlags(node *kong.Node) []flag {
	flags := []flag{{
		flags: "-h, --help",
		help:  "Show context-sensitive help.",
	}}

	for n := node; n != nil; n = n.Parent {
		for _, f := range n.Flags {
			if f.Name == "help" || f.Hidden {
				continue
			}

			flagStr := ""
			if f.Short != 0 {
				flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
			} else {
				flagStr = fmt.Sprintf("--%s", f.Name)
			}

			if !f.IsBool() && f.PlaceHolder != "" {
				flagStr += "=" + strings.ToUpper(f.PlaceHolder)
			}

			flags = append(flags, flag{
				flags:      flagStr,
				help:       f.Help,
				defaultVal: f.Default,
			})
		}
	}

	return flags
}

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

type testCLI struct {
	Config string `short:"c" help:"Config file." placeholder:"path"`

	Review struct {
		List struct{} `cmd:"" help:"List sessions."`
		Show struct {
			ID string `arg:"" help:"Session id."`
		} `cmd:"" help:"Show one session."`
	} `cmd:"" help:"Review stored sessions."`

	Ingest struct {
		File string `arg:"" help:"Report file."`
	} `cmd:"" help:"Read a report."`
}

func parse(t *testing.T, args ...string) (*kong.Context, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	k, err := kong.New(&testCLI{}, kong.Name("psiq"), kong.Writers(&out, &out))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := k.Parse(args)
	if err != nil {
		t.Fatal(err)
	}
	return ctx, &out
}

func TestCommandPath(t *testing.T) {
	ctx, _ := parse(t, "review", "show", "abc")
	if got := strings.Join(commandPath(ctx.Selected()), " "); got != "review show" {
		t.Errorf("commandPath = %q, want %q", got, "review show")
	}
}

func TestStyledHelpPrinter(t *testing.T) {
	ctx, out := parse(t, "review", "show", "abc")
	printer := StyledHelpPrinter(kong.HelpOptions{Compact: true})
	if err := printer(kong.HelpOptions{Compact: true}, ctx); err != nil {
		t.Fatal(err)
	}

	help := out.String()
	for _, want := range []string{AppName, "Show one session.", "psiq review show [flags]", "Session id.", "--help", "--config=PATH"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestGetCommands(t *testing.T) {
	ctx, _ := parse(t, "review", "list")
	review := ctx.Selected().Parent
	cmds := getCommands(review)
	if len(cmds) != 2 || cmds[0].name != "list" || cmds[1].name != "show" {
		t.Errorf("commands = %+v", cmds)
	}
	if line := usageLine("psiq", review); !strings.HasPrefix(line, "psiq review <command>") {
		t.Errorf("usage = %q", line)
	}
}

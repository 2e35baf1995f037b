package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stigoleg/caffeine/internal/cli"
)

// This small tool generates shell completions and a man page from the
// command tree.

const (
	appName        = "caffeine"
	appDescription = "Keep the GNOME session from going idle or suspending."
)

func main() {
	root := cli.NewRootCmd("")
	root.DisableAutoGenTag = true

	if err := writeCompletions(root); err != nil {
		panic(err)
	}
	if err := writeMan(root); err != nil {
		panic(err)
	}
}

func writeCompletions(root *cobra.Command) error {
	base := filepath.Join("docs", "completions")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}

	if err := root.GenBashCompletionFileV2(filepath.Join(base, appName+".bash"), true); err != nil {
		return err
	}
	if err := root.GenZshCompletionFile(filepath.Join(base, "_"+appName)); err != nil {
		return err
	}
	return root.GenFishCompletionFile(filepath.Join(base, appName+".fish"), true)
}

func writeMan(root *cobra.Command) error {
	if err := os.MkdirAll("man", 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(appName) + "\" \"1\" \"\" \"caffeine\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + appName + " - " + appDescription + "\n")
	b.WriteString(".SH SYNOPSIS\n.B " + appName + "\n<command> [flags]\n")
	b.WriteString(".SH DESCRIPTION\n" + escape(root.Long) + "\n")

	b.WriteString(".SH GLOBAL OPTIONS\n")
	writeFlags(&b, root.PersistentFlags())

	b.WriteString(".SH COMMANDS\n")
	walk(root, func(c *cobra.Command) {
		if c == root || c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			return
		}
		b.WriteString(".SS " + escape(strings.TrimPrefix(c.CommandPath(), appName+" ")) + "\n")
		b.WriteString(escape(c.Short) + "\n")
		if c.Example != "" {
			b.WriteString(".PP\nExamples:\n.nf\n" + escape(c.Example) + "\n.fi\n")
		}
		writeFlags(&b, c.LocalNonPersistentFlags())
	})

	b.WriteString(".SH SEE ALSO\nProject homepage: https://github.com/stigoleg/caffeine\n")
	return os.WriteFile(filepath.Join("man", appName+".1"), []byte(b.String()), 0o644)
}

func walk(c *cobra.Command, fn func(*cobra.Command)) {
	fn(c)
	for _, sub := range c.Commands() {
		walk(sub, fn)
	}
}

func writeFlags(b *strings.Builder, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		names := "\\-\\-" + f.Name
		if f.Shorthand != "" {
			names = "\\-" + f.Shorthand + ", " + names
		}
		if f.Value.Type() != "bool" {
			names += " <" + f.Value.Type() + ">"
		}
		b.WriteString(".TP\n\\fB" + names + "\\fR\n" + escape(f.Usage) + "\n")
	})
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "-", `\-`)
}

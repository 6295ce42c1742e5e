package main

import (
	"flag"
	"fmt"

	"github.com/example/mathboard/internal/palette"
)

type colorsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

// swatchKeys are the number-row keys that pick each swatch on the board.
var swatchKeys = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "-", "="}

func (c *colorsCmd) Run() error {
	fmt.Fprintln(c.stdout, "available ink colors (* marks the default color):")
	defaultIdx := palette.DefaultIndex()
	for idx, entry := range palette.Swatches() {
		marker := " "
		if idx == defaultIdx {
			marker = "*"
		}
		key := ""
		if idx < len(swatchKeys) {
			key = swatchKeys[idx]
		}
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", entry.Color.R, entry.Color.G, entry.Color.B)
		fmt.Fprintf(c.stdout, "%s %s: %-8s %s %s\n", marker, key, entry.Name, palette.Format(entry.Color), block)
	}
	return nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

type themesCmd struct {
	*root
	fs *flag.FlagSet
}

func parseThemesCmd(args []string, r *root) (*themesCmd, error) {
	fs := flag.NewFlagSet("themes", flag.ExitOnError)
	cmd := &themesCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *themesCmd) Run() error {
	names := c.config.ThemeLoader().Names()
	if len(names) == 0 {
		fmt.Fprintln(c.stdout, "no themes available")
		return nil
	}
	fmt.Fprintln(c.stdout, "available themes:")
	for _, name := range names {
		fmt.Fprintf(c.stdout, "  %s\n", name)
	}
	return nil
}

func (c *themesCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

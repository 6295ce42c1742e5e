package main

import (
	"flag"
	"fmt"
	"strings"
)

type versionCmd struct{ r *root }

func (v *versionCmd) Program() string        { return v.r.Program() }
func (v *versionCmd) FlagSet() *flag.FlagSet { return nil }

func (v *versionCmd) Run() error {
	fmt.Fprintln(v.r.stdout, versionString(v.r.program))
	return nil
}

func versionString(program string) string {
	parts := []string{fmt.Sprintf("%s version %s", program, version)}
	if c := strings.TrimSpace(commit); c != "" {
		parts = append(parts, "commit "+c)
	}
	if d := strings.TrimSpace(date); d != "" {
		parts = append(parts, "built "+d)
	}
	return strings.Join(parts, ", ")
}

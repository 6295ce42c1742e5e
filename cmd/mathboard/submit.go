package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/example/mathboard/internal/appstate"
	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/clipboard"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/typeset"
)

// assignment is one -var name=value pair.
type assignment struct {
	name, value string
}

// varList collects repeated -var flags.
type varList []assignment

func (v *varList) String() string {
	parts := make([]string, len(*v))
	for i, a := range *v {
		parts[i] = a.name + "=" + a.value
	}
	return strings.Join(parts, ",")
}

func (v *varList) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("variable %q must be name=value", value)
	}
	*v = append(*v, assignment{name: name, value: strings.TrimSpace(val)})
	return nil
}

// submitCmd sends one image to the backend and prints what it recognised.
type submitCmd struct {
	*root
	fs            *flag.FlagSet
	file          string
	fromClipboard bool
	vars          varList
	jsonOut       bool
	render        string
}

func (s *submitCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseSubmitCmd(args []string, r *root) (*submitCmd, error) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	s := &submitCmd{root: r, fs: fs}
	fs.StringVar(&s.file, "file", "", "image file containing the drawing")
	fs.BoolVar(&s.fromClipboard, "from-clipboard", false, "read the drawing from the clipboard")
	fs.Var(&s.vars, "var", "bind a variable as name=value (may be repeated)")
	fs.BoolVar(&s.jsonOut, "json", false, "print results as JSON")
	fs.StringVar(&s.render, "render", "", "also write the drawing with its result cards to this PNG")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if s.file == "" && fs.NArg() == 1 {
		s.file = fs.Arg(0)
	} else if fs.NArg() != 0 {
		return nil, &UsageError{of: s}
	}
	if s.fromClipboard && s.file != "" {
		return nil, errors.New("-from-clipboard cannot be combined with a file")
	}
	if !s.fromClipboard && s.file == "" {
		return nil, errors.New("an image file or -from-clipboard is required")
	}
	return s, nil
}

func (s *submitCmd) load() (image.Image, string, error) {
	if s.fromClipboard {
		img, err := clipboard.ReadImage()
		if err != nil {
			return nil, "", fmt.Errorf("read clipboard: %w", err)
		}
		return img, "clipboard", nil
	}
	f, err := os.Open(s.file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", s.file, err)
	}
	return img, s.file, nil
}

type submitResult struct {
	Expr   string `json:"expr"`
	Result string `json:"result"`
}

type submitOutput struct {
	Results   []submitResult    `json:"results"`
	Variables map[string]string `json:"variables"`
}

func (s *submitCmd) Run() error {
	img, src, err := s.load()
	if err != nil {
		return err
	}
	snap := canvas.NewSnapshot(img)

	opts := boardOptions{size: snap.Bounds().Size()}
	var engine *typeset.Engine
	if s.render != "" {
		engine = typeset.New(typeset.WithStyle(s.theme.CardStyle()), typeset.WithLogger(s.logger))
		opts.typesetter = engine
	}
	b := s.newBoard(opts)
	for _, a := range s.vars {
		b.session.Store().Set(a.name, a.value)
	}

	ctx := context.Background()
	if d := s.config.Session.RequestTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := b.session.SubmitSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("submit %s: %w", src, err)
	}
	b.session.Wait()

	view := b.session.View()
	if s.render != "" {
		out := appstate.Compose(s.theme, snap.Image(), view.Annotations, engine)
		if err := appstate.SavePNG(s.render, out); err != nil {
			return err
		}
		s.notifier.Save(s.render)
	}
	return s.print(view.Annotations, view.Variables)
}

func (s *submitCmd) print(anns []overlay.Annotation, vars map[string]string) error {
	if s.jsonOut {
		out := submitOutput{Results: make([]submitResult, len(anns)), Variables: vars}
		for i, a := range anns {
			out.Results[i] = submitResult{Expr: a.Expr, Result: a.Answer}
		}
		enc := json.NewEncoder(s.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(anns) == 0 {
		fmt.Fprintln(s.stdout, "nothing recognised")
		return nil
	}
	for _, a := range anns {
		fmt.Fprintln(s.stdout, a.Text())
	}
	return nil
}

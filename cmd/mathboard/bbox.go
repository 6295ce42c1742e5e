package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"

	"github.com/example/mathboard/internal/bbox"
)

// bboxCmd prints the bounding box of the ink in an image.
type bboxCmd struct {
	*root
	fs   *flag.FlagSet
	file string
}

func (b *bboxCmd) FlagSet() *flag.FlagSet {
	return b.fs
}

func parseBBoxCmd(args []string, r *root) (*bboxCmd, error) {
	fs := flag.NewFlagSet("bbox", flag.ExitOnError)
	b := &bboxCmd{root: r, fs: fs}
	fs.Usage = usageFunc(b)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: b}
	}
	b.file = fs.Arg(0)
	return b, nil
}

func (b *bboxCmd) Run() error {
	f, err := os.Open(b.file)
	if err != nil {
		return err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", b.file, err)
	}
	box, found := bbox.Locate(img)
	if !found {
		return errors.New("no ink found")
	}
	c := box.Center()
	fmt.Fprintf(b.stdout, "min %d,%d max %d,%d center %d,%d\n", box.MinX, box.MinY, box.MaxX, box.MaxY, c.X, c.Y)
	return nil
}

// Command unixfs-export reads a UnixFS DAG out of a CAR file: it walks
// a path to a file or directory and either prints the file's bytes or
// lists a directory's entries. Grounded on ipld-go-car's v2/cmd/car
// command set (one cli.App, one cli.Command per verb).
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/ipfs/go-unixfs-exporter/blockstore"
	"github.com/ipfs/go-unixfs-exporter/export"
)

var logger = logging.Logger("unixfs-export")

func main() {
	app := &cli.App{
		Name:  "unixfs-export",
		Usage: "walk a UnixFS DAG stored in a CAR file",
		Commands: []*cli.Command{
			catCommand,
			lsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var catCommand = &cli.Command{
	Name:      "cat",
	Usage:     "print a file's content",
	ArgsUsage: "<file.car> <path>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return fmt.Errorf("usage: unixfs-export cat <file.car> <path>")
		}
		store, err := blockstore.OpenCarStore(c.Args().Get(0))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		entry, err := export.Exporter(ctx, store, c.Args().Get(1))
		if err != nil {
			return err
		}
		if entry.Kind == export.KindDirectory {
			return fmt.Errorf("%s is a directory, not a file", entry.Path)
		}
		chunks, err := entry.Bytes(ctx)
		if err != nil {
			return err
		}
		for {
			chunk, err := chunks.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(chunk); err != nil {
				return err
			}
		}
	},
}

var lsCommand = &cli.Command{
	Name:      "ls",
	Usage:     "list a directory's entries",
	ArgsUsage: "<file.car> <path>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return fmt.Errorf("usage: unixfs-export ls <file.car> <path>")
		}
		store, err := blockstore.OpenCarStore(c.Args().Get(0))
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		entry, err := export.Exporter(ctx, store, c.Args().Get(1))
		if err != nil {
			return err
		}
		if entry.Kind != export.KindDirectory {
			return fmt.Errorf("%s is not a directory", entry.Path)
		}
		children, err := entry.Entries(ctx)
		if err != nil {
			return err
		}
		for {
			child, err := children.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			logger.Debugw("visiting entry", "cid", child.Cid, "kind", child.Kind.String())
			fmt.Printf("%s\t%s\t%d\n", child.Kind, child.Name, child.Size)
		}
	},
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

func upload(fsys *ninep.FileSystemProxy, local, remote string, mode ninep.Mode) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open %s: %w", local, err)
	}
	defer f.Close()

	h, err := fsys.CreateFile(remote, ninep.OWRITE|ninep.OTRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", remote, err)
	}
	defer h.Close()

	if _, err := io.Copy(ninep.Writer(h), f); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", local, remote, err)
	}
	return nil
}

func main() {
	var parallel int
	var verbose bool

	flag.IntVar(&parallel, "j", 4, "number of concurrent uploads")
	flag.BoolVar(&verbose, "v", false, "print each file as it finishes")

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "upload local files over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR LOCAL_FILE... REMOTE_DIR\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		if flag.NArg() < 3 {
			flag.Usage()
			return fmt.Errorf("need at least one local file and a remote dir")
		}

		args := flag.Args()
		locals := args[1 : len(args)-1]
		remoteDir := args[len(args)-1]

		if remoteDir != "" {
			if err := fsys.MakeDirAll(remoteDir, 0755); err != nil {
				return err
			}
		}

		var g errgroup.Group
		g.SetLimit(parallel)
		for _, local := range locals {
			local := local
			g.Go(func() error {
				fi, err := os.Stat(local)
				if err != nil {
					return err
				}
				remote := path.Join(remoteDir, filepath.Base(local))
				if err := upload(fsys, local, remote, ninep.ModeFromOS(fi.Mode())); err != nil {
					return err
				}
				if verbose {
					fmt.Printf("%s -> %s (%d bytes)\n", local, remote, fi.Size())
				}
				return nil
			})
		}
		return g.Wait()
	})
}

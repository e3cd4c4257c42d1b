package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

func main() {
	var parents bool

	flag.BoolVar(&parents, "p", false, "make parent directories as needed")

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "mkdir over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR PATH...\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		if flag.NArg() < 2 {
			flag.Usage()
			return fmt.Errorf("no paths given")
		}
		for _, path := range flag.Args()[1:] {
			var err error
			if parents {
				err = fsys.MakeDirAll(path, 0755)
			} else {
				err = fsys.MakeDir(path, 0755)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
}

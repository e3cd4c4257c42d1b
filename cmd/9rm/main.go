package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

func main() {
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "rm over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR PATH...\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		if flag.NArg() < 2 {
			flag.Usage()
			return fmt.Errorf("no paths given")
		}
		for _, path := range flag.Args()[1:] {
			if err := fsys.Delete(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
}

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
		fmt.Fprintf(w, "stat over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR PATH...\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		if flag.NArg() < 2 {
			flag.Usage()
			return fmt.Errorf("no paths given")
		}
		for _, path := range flag.Args()[1:] {
			fi, err := fsys.Stat(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			usr, gid, muid := ninep.FileUsers(fi)
			fmt.Printf("%s:\n", path)
			fmt.Printf("  mode:  %s\n", fi.Mode())
			fmt.Printf("  size:  %d\n", fi.Size())
			fmt.Printf("  mtime: %s\n", fi.ModTime())
			fmt.Printf("  owner: %s group: %s", usr, gid)
			if muid != "" {
				fmt.Printf(" modified-by: %s", muid)
			}
			fmt.Println()
		}
		return nil
	})
}

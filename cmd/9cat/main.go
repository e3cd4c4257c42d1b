package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

func main() {
	var writeFromStdin bool
	var printFilename bool

	flag.BoolVar(&writeFromStdin, "stdin", false, "write data read from stdin before reading the 9p file back")
	flag.BoolVar(&printFilename, "filename", false, "print the filename before its contents")

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "cat over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR PATH...\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		if flag.NArg() < 2 {
			flag.Usage()
			return fmt.Errorf("no paths given")
		}

		mode := ninep.OpenMode(ninep.OREAD)
		if writeFromStdin {
			mode = ninep.ORDWR
		}

		for _, path := range flag.Args()[1:] {
			h, err := fsys.OpenFile(path, mode)
			if err != nil {
				return err
			}

			if printFilename {
				fmt.Printf("=== %s ===\n", path)
			}

			if writeFromStdin {
				n, err := io.Copy(ninep.Writer(h), os.Stdin)
				fmt.Fprintf(os.Stderr, "# wrote %d bytes\n", n)
				if err != nil {
					h.Close()
					return err
				}
			}

			_, err = io.Copy(os.Stdout, ninep.Reader(h))
			h.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
}

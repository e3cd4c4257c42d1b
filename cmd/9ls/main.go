package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

var (
	dirColor  = color.New(color.FgBlue, color.Bold)
	linkColor = color.New(color.FgCyan)
)

func colorName(info os.FileInfo) string {
	name := info.Name()
	switch {
	case info.IsDir():
		return dirColor.Sprint(name) + "/"
	case info.Mode()&os.ModeSymlink != 0:
		return linkColor.Sprint(name)
	default:
		return name
	}
}

func main() {
	var list bool

	flag.BoolVar(&list, "l", false, "list long format stats about each file")

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "ls over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR [PATH]\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		path := ""
		if flag.NArg() > 1 {
			path = flag.Arg(1)
		}

		infos, err := fsys.ListDir(path)
		if err != nil {
			return err
		}
		defer infos.Close()

		if list {
			w := tabwriter.NewWriter(os.Stdout, 2, 1, 1, ' ', tabwriter.AlignRight|tabwriter.DiscardEmptyColumns)
			for {
				info, err := infos.NextFileInfo()
				if info != nil {
					usr, gid, muid := ninep.FileUsers(info)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t %s\n",
						info.Mode(), usr, gid, muid, info.Size(), info.ModTime().Format("Jan _2 15:04"), colorName(info))
				}
				if err == io.EOF {
					break
				} else if err != nil {
					return err
				}
			}
			w.Flush()
		} else {
			for {
				info, err := infos.NextFileInfo()
				if info != nil {
					fmt.Println(colorName(info))
				}
				if err == io.EOF {
					break
				} else if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

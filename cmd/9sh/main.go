package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/google/shlex"
	"golang.org/x/term"

	"github.com/jeffh/p9fs/cli"
	"github.com/jeffh/p9fs/ninep"
)

type shell struct {
	fsys *ninep.FileSystemProxy
	cwd  string
	out  io.Writer
}

// resolve maps a command argument onto an absolute path in the tree,
// relative to the shell's working directory.
func (sh *shell) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)[1:]
	}
	joined := path.Join(sh.cwd, p)
	if joined == "." {
		return ""
	}
	return joined
}

func (sh *shell) ls(args []string) error {
	long := false
	if len(args) > 0 && args[0] == "-l" {
		long = true
		args = args[1:]
	}
	dir := sh.cwd
	if len(args) > 0 {
		dir = sh.resolve(args[0])
	}

	infos, err := sh.fsys.ListDir(dir)
	if err != nil {
		return err
	}
	defer infos.Close()

	w := tabwriter.NewWriter(sh.out, 2, 1, 1, ' ', tabwriter.AlignRight|tabwriter.DiscardEmptyColumns)
	for {
		info, err := infos.NextFileInfo()
		if info != nil {
			if long {
				usr, gid, _ := ninep.FileUsers(info)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t %s\n", info.Mode(), usr, gid, info.Size(), info.Name())
			} else {
				fmt.Fprintln(w, info.Name())
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
	}
	return w.Flush()
}

func (sh *shell) cat(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cat: missing path")
	}
	for _, a := range args {
		h, err := sh.fsys.OpenFile(sh.resolve(a), ninep.OREAD)
		if err != nil {
			return err
		}
		_, err = io.Copy(sh.out, ninep.Reader(h))
		h.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (sh *shell) cd(args []string) error {
	if len(args) == 0 {
		sh.cwd = ""
		return nil
	}
	target := sh.resolve(args[0])
	fi, err := sh.fsys.Stat(target)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("cd: %s: not a directory", args[0])
	}
	sh.cwd = target
	return nil
}

func (sh *shell) run(cmd string, args []string) error {
	switch cmd {
	case "ls":
		return sh.ls(args)
	case "cat":
		return sh.cat(args)
	case "cd":
		return sh.cd(args)
	case "pwd":
		fmt.Fprintf(sh.out, "/%s\n", sh.cwd)
		return nil
	case "mkdir":
		if len(args) == 0 {
			return fmt.Errorf("mkdir: missing path")
		}
		for _, a := range args {
			if err := sh.fsys.MakeDirAll(sh.resolve(a), 0755); err != nil {
				return err
			}
		}
		return nil
	case "rm":
		if len(args) == 0 {
			return fmt.Errorf("rm: missing path")
		}
		for _, a := range args {
			if err := sh.fsys.Delete(sh.resolve(a)); err != nil {
				return err
			}
		}
		return nil
	case "mv":
		if len(args) != 2 {
			return fmt.Errorf("mv: usage: mv OLD NEW")
		}
		return sh.fsys.Rename(sh.resolve(args[0]), sh.resolve(args[1]))
	case "cp":
		if len(args) != 2 {
			return fmt.Errorf("cp: usage: cp SRC DST")
		}
		return sh.fsys.CopyFile(sh.resolve(args[1]), sh.resolve(args[0]), 0644)
	case "stat":
		if len(args) == 0 {
			return fmt.Errorf("stat: missing path")
		}
		for _, a := range args {
			fi, err := sh.fsys.Stat(sh.resolve(a))
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "%s %10d %s %s\n", fi.Mode(), fi.Size(), fi.ModTime().Format("Jan _2 15:04"), fi.Name())
		}
		return nil
	case "help":
		fmt.Fprintln(sh.out, "commands: ls [-l] [PATH], cat PATH..., cd [PATH], pwd, mkdir PATH..., rm PATH..., mv OLD NEW, cp SRC DST, stat PATH..., exit")
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func main() {
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "interactive shell over 9p\n")
		fmt.Fprintf(w, "Usage: %s [OPTIONS] ADDR\n", os.Args[0])
		flag.PrintDefaults()
	}

	cli.MainClient(func(c *ninep.Client, fsys *ninep.FileSystemProxy) error {
		sh := &shell{fsys: fsys, out: os.Stdout}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			if interactive {
				fmt.Printf("9p:/%s> ", sh.cwd)
			}
			if !scanner.Scan() {
				break
			}
			words, err := shlex.Split(scanner.Text())
			if err != nil {
				fmt.Fprintf(os.Stderr, "parse error: %s\n", err)
				continue
			}
			if len(words) == 0 {
				continue
			}
			if words[0] == "exit" || words[0] == "quit" {
				break
			}
			if err := sh.run(words[0], words[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", words[0], err)
			}
		}
		return scanner.Err()
	})
}

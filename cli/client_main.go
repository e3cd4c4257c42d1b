package cli

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/jeffh/p9fs/ninep"
)

type ClientConfig struct {
	PrintTraceMessages bool
	PrintErrorMessages bool
	NoColor            bool

	PrintPrefix string

	User    string
	Mount   string
	Version string

	TimeoutInSeconds int
}

func (c *ClientConfig) SetFlags(f Flags) {
	if f == nil {
		f = &StdFlags{}
	}
	f.StringVar(&c.User, "user", "", "Username to connect as, defaults to current system user")
	f.StringVar(&c.Mount, "mount", "", "File tree to attach to, defaults to the server's root")
	f.StringVar(&c.Version, "version", ninep.VERSION_9P2000L, "Protocol version to request; servers may downgrade (9P2000, 9P2000.u, 9P2000.L)")
	f.IntVar(&c.TimeoutInSeconds, "timeout", 5, "Timeout in seconds for client requests")
	f.BoolVar(&c.PrintTraceMessages, "trace", false, "Print a trace of 9p messages")
	f.BoolVar(&c.PrintErrorMessages, "err", false, "Print 9p client errors")
	f.BoolVar(&c.NoColor, "no-color", false, "Disable colored output")
}

func (c *ClientConfig) user() string {
	if c.User == "" {
		if u, err := user.Current(); err == nil {
			c.User = u.Username
		} else {
			c.User = "9puser"
		}
	}
	return c.User
}

func (c *ClientConfig) CreateClient(addr string) (*ninep.Client, error) {
	clt := &ninep.Client{
		Version:  c.Version,
		Timeout:  time.Duration(c.TimeoutInSeconds) * time.Second,
		Loggable: NewLoggers(c.PrintTraceMessages, c.PrintErrorMessages, c.PrintPrefix),
	}
	if err := clt.Connect(addr); err != nil {
		return nil, fmt.Errorf("failed to connect to 9p server: %w", err)
	}
	return clt, nil
}

func (c *ClientConfig) CreateFs(addr string) (*ninep.Client, *ninep.FileSystemProxy, error) {
	clt, err := c.CreateClient(addr)
	if err != nil {
		return nil, nil, err
	}
	s, err := clt.Session(c.user(), c.Mount)
	if err != nil {
		clt.Close()
		return nil, nil, fmt.Errorf("failed to attach to 9p server: %w", err)
	}
	return clt, s.Fs(), nil
}

// MainClient is the shared main for the client tools: parse flags, connect
// to the server named by the first positional argument, attach, and hand
// the tree to fn.
func MainClient(fn func(c *ninep.Client, fsys *ninep.FileSystemProxy) error) {
	var (
		cfg      ClientConfig
		exitCode int
	)

	defer func() {
		os.Exit(exitCode)
	}()

	cfg.SetFlags(nil)

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		exitCode = 1
		runtime.Goexit()
	}

	SupportsColor(cfg.NoColor)

	addr := flag.Arg(0)

	clt, fsys, err := cfg.CreateFs(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		exitCode = 1
		runtime.Goexit()
	}
	defer fsys.Session().Close()

	if err := fn(clt, fsys); err != nil {
		fmt.Fprintf(os.Stderr, "Failed: %s\n", err)
		exitCode = 1
		runtime.Goexit()
	}
}

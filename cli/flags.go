package cli

import "flag"

// Flags abstracts flag registration so configs can bind onto the global
// flag set or an embedding program's own.
type Flags interface {
	StringVar(*string, string, string, string)
	IntVar(*int, string, int, string)
	BoolVar(*bool, string, bool, string)
}

// StdFlags registers onto the process-wide flag set.
type StdFlags struct{}

func (f *StdFlags) StringVar(p *string, name, value, usage string) {
	flag.StringVar(p, name, value, usage)
}

func (f *StdFlags) IntVar(p *int, name string, value int, usage string) {
	flag.IntVar(p, name, value, usage)
}

func (f *StdFlags) BoolVar(p *bool, name string, value bool, usage string) {
	flag.BoolVar(p, name, value, usage)
}

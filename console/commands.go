// console/commands.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package console

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Env is what commands operate on. Fields other than Console may be nil
// (or empty), in which case the commands that need them report an error.
type Env struct {
	Console    *Console
	CVars      *cvar.Registry
	ConfigPath string
	Stats      func() (renderer.RendererStats, int)
	Quit       func()
}

type Command interface {
	Name() string
	Help() string
	Usage() string
	// MinArgs and MaxArgs bound the number of arguments; a negative
	// MaxArgs means any number.
	MinArgs() int
	MaxArgs() int
	Run(env *Env, args []string) (string, error)
}

var commands = []Command{
	&ClearCommand{},
	&CVarsCommand{},
	&EchoCommand{},
	&GetCommand{},
	&QuitCommand{},
	&ResetCommand{},
	&SaveCommand{},
	&SetCommand{},
	&StatsCommand{},
}

func lookupCommand(n string) Command {
	for _, c := range commands {
		if c.Name() == n {
			return c
		}
	}
	return nil
}

// Execute runs a command line, adding it and its output to the console.
func Execute(env *Env, cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	env.Console.Print("> " + cmd)

	output, err := run(env, cmd)
	if err != nil {
		env.Console.Error(err)
	}
	if output != "" {
		env.Console.Print(output)
	}
}

func run(env *Env, cmd string) (string, error) {
	fields := strings.Fields(cmd)

	if fields[0] == "help" {
		switch len(fields) {
		case 1:
			names := util.MapSlice(commands, func(c Command) string { return c.Name() })
			names = append(names, "help")
			slices.Sort(names)
			return fmt.Sprintf("available commands: %s", strings.Join(names, " ")), nil
		case 2:
			c := lookupCommand(fields[1])
			if c == nil {
				return "", fmt.Errorf("%s: %w", fields[1], ErrUnknownCommand)
			}
			return fmt.Sprintf("%s %s: %s", c.Name(), c.Usage(), c.Help()), nil
		default:
			return "", fmt.Errorf("%w: help [command]", ErrUsage)
		}
	}

	c := lookupCommand(fields[0])
	if c == nil {
		return "", fmt.Errorf("%s: %w", fields[0], ErrUnknownCommand)
	}
	args := fields[1:]
	if len(args) < c.MinArgs() || (c.MaxArgs() >= 0 && len(args) > c.MaxArgs()) {
		return "", fmt.Errorf("%w: %s %s", ErrUsage, c.Name(), c.Usage())
	}
	return c.Run(env, args)
}

func needCVars(env *Env) (*cvar.Registry, error) {
	if env.CVars == nil {
		return nil, errors.New("no cvars available")
	}
	return env.CVars, nil
}

///////////////////////////////////////////////////////////////////////////

type SetCommand struct{}

func (*SetCommand) Name() string  { return "set" }
func (*SetCommand) Usage() string { return "<cvar> <value>" }
func (*SetCommand) Help() string  { return "Sets the value of a cvar." }
func (*SetCommand) MinArgs() int  { return 2 }
func (*SetCommand) MaxArgs() int  { return -1 }
func (*SetCommand) Run(env *Env, args []string) (string, error) {
	r, err := needCVars(env)
	if err != nil {
		return "", err
	}
	if err := r.SetUser(args[0], strings.Join(args[1:], " ")); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", args[0], r.String(args[0])), nil
}

type GetCommand struct{}

func (*GetCommand) Name() string  { return "get" }
func (*GetCommand) Usage() string { return "<cvar>" }
func (*GetCommand) Help() string  { return "Prints the value of a cvar." }
func (*GetCommand) MinArgs() int  { return 1 }
func (*GetCommand) MaxArgs() int  { return 1 }
func (*GetCommand) Run(env *Env, args []string) (string, error) {
	r, err := needCVars(env)
	if err != nil {
		return "", err
	}
	cv, ok := r.Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("%s: %w", args[0], cvar.ErrUnknownCVar)
	}
	s := fmt.Sprintf("%s = %s (default %s)", cv.Name, cv.Value(), cv.Default)
	if cv.Help != "" {
		s += "\n  " + cv.Help
	}
	return s, nil
}

type ResetCommand struct{}

func (*ResetCommand) Name() string  { return "reset" }
func (*ResetCommand) Usage() string { return "<cvar>" }
func (*ResetCommand) Help() string  { return "Restores a cvar's default value." }
func (*ResetCommand) MinArgs() int  { return 1 }
func (*ResetCommand) MaxArgs() int  { return 1 }
func (*ResetCommand) Run(env *Env, args []string) (string, error) {
	r, err := needCVars(env)
	if err != nil {
		return "", err
	}
	return "", r.Reset(args[0])
}

type CVarsCommand struct{}

func (*CVarsCommand) Name() string  { return "cvars" }
func (*CVarsCommand) Usage() string { return "[prefix]" }
func (*CVarsCommand) Help() string  { return "Lists the cvars, optionally those starting with prefix." }
func (*CVarsCommand) MinArgs() int  { return 0 }
func (*CVarsCommand) MaxArgs() int  { return 1 }
func (*CVarsCommand) Run(env *Env, args []string) (string, error) {
	r, err := needCVars(env)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, name := range r.Names() {
		if len(args) == 0 || strings.HasPrefix(name, args[0]) {
			cv, _ := r.Lookup(name)
			lines = append(lines, cv.String())
		}
	}
	return strings.Join(lines, "\n"), nil
}

type SaveCommand struct{}

func (*SaveCommand) Name() string  { return "save" }
func (*SaveCommand) Usage() string { return "[path]" }
func (*SaveCommand) Help() string  { return "Writes the saveable cvars to the config file." }
func (*SaveCommand) MinArgs() int  { return 0 }
func (*SaveCommand) MaxArgs() int  { return 1 }
func (*SaveCommand) Run(env *Env, args []string) (string, error) {
	r, err := needCVars(env)
	if err != nil {
		return "", err
	}
	path := env.ConfigPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return "", errors.New("no config file path")
	}
	if err := r.SaveFile(path); err != nil {
		return "", err
	}
	return "saved " + path, nil
}

type ClearCommand struct{}

func (*ClearCommand) Name() string  { return "clear" }
func (*ClearCommand) Usage() string { return "" }
func (*ClearCommand) Help() string  { return "Clears the console." }
func (*ClearCommand) MinArgs() int  { return 0 }
func (*ClearCommand) MaxArgs() int  { return 0 }
func (*ClearCommand) Run(env *Env, args []string) (string, error) {
	env.Console.Clear()
	return "", nil
}

type EchoCommand struct{}

func (*EchoCommand) Name() string  { return "echo" }
func (*EchoCommand) Usage() string { return "<text>" }
func (*EchoCommand) Help() string  { return "Prints its arguments." }
func (*EchoCommand) MinArgs() int  { return 0 }
func (*EchoCommand) MaxArgs() int  { return -1 }
func (*EchoCommand) Run(env *Env, args []string) (string, error) {
	return strings.Join(args, " "), nil
}

type StatsCommand struct{}

func (*StatsCommand) Name() string  { return "stats" }
func (*StatsCommand) Usage() string { return "" }
func (*StatsCommand) Help() string  { return "Prints rendering statistics." }
func (*StatsCommand) MinArgs() int  { return 0 }
func (*StatsCommand) MaxArgs() int  { return 0 }
func (*StatsCommand) Run(env *Env, args []string) (string, error) {
	if env.Stats == nil {
		return "", errors.New("no renderer statistics available")
	}
	s, failures := env.Stats()
	return fmt.Sprintf("%s\n%d failed frames", s.String(), failures), nil
}

type QuitCommand struct{}

func (*QuitCommand) Name() string  { return "quit" }
func (*QuitCommand) Usage() string { return "" }
func (*QuitCommand) Help() string  { return "Exits." }
func (*QuitCommand) MinArgs() int  { return 0 }
func (*QuitCommand) MaxArgs() int  { return 0 }
func (*QuitCommand) Run(env *Env, args []string) (string, error) {
	if env.Quit == nil {
		return "", errors.New("quit is not available")
	}
	env.Quit()
	return "", nil
}

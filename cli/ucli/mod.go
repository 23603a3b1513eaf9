// Package ucli builds the commands declared with the cli package on top of
// urfave/cli.
package ucli

import (
	"fmt"
	"io"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/piggybank/cli"
)

// Builder turns the declared commands into an urfave application.
//
// - implements cli.Builder
type Builder struct {
	root *command
	out  io.Writer
}

// NewBuilder returns a builder for the application name. The action runs when
// no command is given and can be nil. The flags are accepted by every command.
func NewBuilder(name string, action cli.Action, flags ...cli.Flag) *Builder {
	return &Builder{
		root: &command{
			name:   name,
			action: action,
			flags:  flags,
		},
	}
}

// SetUsage sets the line printed under the name of the application in the
// help.
func (b *Builder) SetUsage(value string) {
	b.root.usage = value
}

// SetWriter sets where the help and the version are printed. It defaults to
// the standard output.
func (b *Builder) SetWriter(out io.Writer) {
	b.out = out
}

// SetCommand implements cli.Builder.
func (b *Builder) SetCommand(name string) cli.CommandBuilder {
	return b.root.SetSubCommand(name)
}

// Build implements cli.Builder.
func (b *Builder) Build() cli.Application {
	app := &urfave.App{
		Name:     b.root.name,
		Usage:    b.root.usage,
		Writer:   b.out,
		Action:   wrap(b.root.action),
		Flags:    convertFlags(b.root.flags),
		Commands: b.root.children(),
	}

	app.Setup()

	return app
}

// command is a node of the command tree.
//
// - implements cli.CommandBuilder
type command struct {
	name        string
	usage       string
	action      cli.Action
	flags       []cli.Flag
	subcommands []*command
}

// SetDescription implements cli.CommandBuilder.
func (c *command) SetDescription(value string) {
	c.usage = value
}

// SetFlags implements cli.CommandBuilder. It replaces the previous flags.
func (c *command) SetFlags(flags ...cli.Flag) {
	c.flags = flags
}

// SetAction implements cli.CommandBuilder.
func (c *command) SetAction(action cli.Action) {
	c.action = action
}

// SetSubCommand implements cli.CommandBuilder.
func (c *command) SetSubCommand(name string) cli.CommandBuilder {
	sub := &command{name: name}
	c.subcommands = append(c.subcommands, sub)

	return sub
}

func (c *command) children() []*urfave.Command {
	cmds := make([]*urfave.Command, len(c.subcommands))

	for i, sub := range c.subcommands {
		cmds[i] = &urfave.Command{
			Name:        sub.name,
			Usage:       sub.usage,
			Action:      wrap(sub.action),
			Flags:       convertFlags(sub.flags),
			Subcommands: sub.children(),
		}
	}

	return cmds
}

func convertFlags(flags []cli.Flag) []urfave.Flag {
	res := make([]urfave.Flag, len(flags))
	for i, f := range flags {
		res[i] = convertFlag(f)
	}

	return res
}

// convertFlag panics for a definition it does not know, which is a
// programming error of the application.
func convertFlag(f cli.Flag) urfave.Flag {
	switch def := f.(type) {
	case cli.StringFlag:
		return &urfave.StringFlag{
			Name:     def.Name,
			Usage:    def.Usage,
			Required: def.Required,
			Value:    def.Value,
		}
	case cli.Uint64Flag:
		return &urfave.Uint64Flag{
			Name:     def.Name,
			Usage:    def.Usage,
			Required: def.Required,
			Value:    def.Value,
		}
	case cli.BoolFlag:
		return &urfave.BoolFlag{
			Name:     def.Name,
			Usage:    def.Usage,
			Required: def.Required,
			Value:    def.Value,
		}
	default:
		panic(fmt.Sprintf("flag type '%T' not supported", f))
	}
}

// wrap adapts an action to urfave. The urfave context is passed as the flags.
func wrap(action cli.Action) urfave.ActionFunc {
	if action == nil {
		return nil
	}

	return func(ctx *urfave.Context) error {
		return action(ctx)
	}
}

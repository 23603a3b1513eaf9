// Package cli describes the commands of the piggybank tool independently of
// the library that parses the command line.
//
// A command is declared with its flags and the action that runs it:
//
// 	builder := ucli.NewBuilder("piggybank", nil)
//
// 	cmd := builder.SetCommand("view")
// 	cmd.SetFlags(cli.Uint64Flag{Name: "contract", Required: true})
// 	cmd.SetAction(func(flags cli.Flags) error {
// 		fmt.Println("contract", flags.Uint64("contract"))
// 		return nil
// 	})
//
// 	err := builder.Build().Run(os.Args)
//
// Actions only read the flags through the Flags interface so that the tests
// can call them with a FlagSet.
package cli

// Builder collects the commands of an application.
type Builder interface {
	// SetCommand adds a top-level command.
	SetCommand(name string) CommandBuilder

	// Build returns the application with every command added so far.
	Build() Application
}

// Application runs the command selected by the arguments.
type Application interface {
	Run(arguments []string) error
}

// CommandBuilder declares a single command.
type CommandBuilder interface {
	SetDescription(value string)

	SetFlags(...Flag)

	SetAction(Action)

	// SetSubCommand adds a command nested under this one, like "account
	// create".
	SetSubCommand(name string) CommandBuilder
}

// Action runs a command with its parsed flags.
type Action func(Flags) error

// Flag is implemented by the flag definitions of this package.
type Flag interface {
	Flag()
}

// Flags gives an action the values of its flags and of the global ones. A flag
// that is not set reads as its zero value.
type Flags interface {
	String(name string) string

	// Path is a string flag that names a file or a folder.
	Path(name string) string

	Uint64(name string) uint64

	Bool(name string) bool
}

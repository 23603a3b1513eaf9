// Package main implements a command line tool to play with piggy banks on a
// local chain stored in a configuration folder.
//
//  piggybank account create --name alice --balance 10000
//  piggybank account create --name bob --balance 10000
//  piggybank init --sender alice
//  piggybank insert --sender bob --contract 0 --amount 50
//  piggybank view --contract 0
//  piggybank list
//  piggybank smash --sender alice --contract 0
//  piggybank serve --addr :9100
//
// The global flags --config and --driver select the folder and the database
// driver.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/cli/ucli"
)

var printer io.Writer = os.Stderr
var exit = os.Exit

func main() {
	err := run(os.Args, os.Stdout)
	if err != nil {
		fmt.Fprintf(printer, "%+v\n", err)
		exit(1)
	}
}

func run(args []string, out io.Writer) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	a := action{
		printer: out,
		signals: signals,
	}

	app := newBuilder(a, out).Build()

	return app.Run(args)
}

func newBuilder(a action, out io.Writer) cli.Builder {
	builder := ucli.NewBuilder("piggybank", nil,
		cli.StringFlag{
			Name:  "config",
			Usage: "path to the configuration folder",
			Value: ".piggybank",
		},
		cli.StringFlag{
			Name:  "driver",
			Usage: "database driver: bolt or sqlite",
		},
		cli.Uint64Flag{
			Name:  "energy-price",
			Usage: "price of one unit of energy",
		},
		cli.Uint64Flag{
			Name:  "energy-limit",
			Usage: "maximum energy of a call",
		},
		cli.BoolFlag{
			Name:  "tracing",
			Usage: "report the executions to a jaeger agent",
		},
	)

	builder.SetUsage("piggy banks on a local chain")
	builder.SetWriter(out)

	cmd := builder.SetCommand("config")
	cmd.SetDescription("write the configuration file with the current flags")
	cmd.SetAction(a.configAction)

	account := builder.SetCommand("account")
	account.SetDescription("manage the accounts")

	sub := account.SetSubCommand("create")
	sub.SetDescription("create an account with a new key")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "name",
			Usage:    "name of the account",
			Required: true,
		},
		cli.Uint64Flag{
			Name:  "balance",
			Usage: "initial balance of the account",
		},
	)
	sub.SetAction(a.createAccountAction)

	sub = account.SetSubCommand("balance")
	sub.SetDescription("print the balance of an account")
	sub.SetFlags(cli.StringFlag{
		Name:     "name",
		Usage:    "name of the account",
		Required: true,
	})
	sub.SetAction(a.balanceAction)

	cmd = builder.SetCommand("init")
	cmd.SetDescription("create a new piggy bank")
	cmd.SetFlags(
		senderFlag,
		cli.Uint64Flag{
			Name:  "amount",
			Usage: "amount attached to the call",
		},
		energyFlag,
	)
	cmd.SetAction(a.initAction)

	cmd = builder.SetCommand("insert")
	cmd.SetDescription("insert an amount into a piggy bank")
	cmd.SetFlags(
		senderFlag,
		contractFlag,
		cli.Uint64Flag{
			Name:     "amount",
			Usage:    "amount to insert",
			Required: true,
		},
		energyFlag,
	)
	cmd.SetAction(a.insertAction)

	cmd = builder.SetCommand("smash")
	cmd.SetDescription("smash a piggy bank and get its balance back")
	cmd.SetFlags(senderFlag, contractFlag, energyFlag)
	cmd.SetAction(a.smashAction)

	cmd = builder.SetCommand("view")
	cmd.SetDescription("print the balance and the state of a piggy bank")
	cmd.SetFlags(contractFlag)
	cmd.SetAction(a.viewAction)

	cmd = builder.SetCommand("list")
	cmd.SetDescription("print every piggy bank of the chain")
	cmd.SetAction(a.listAction)

	cmd = builder.SetCommand("serve")
	cmd.SetDescription("serve the metrics and the piggy banks over HTTP")
	cmd.SetFlags(cli.StringFlag{
		Name:  "addr",
		Usage: "listening address, defaults to metrics_addr of the config",
	})
	cmd.SetAction(a.serveAction)

	return builder
}

var senderFlag = cli.StringFlag{
	Name:     "sender",
	Usage:    "name of the account that signs the call",
	Required: true,
}

var contractFlag = cli.Uint64Flag{
	Name:     "contract",
	Usage:    "index of the piggy bank",
	Required: true,
}

var energyFlag = cli.Uint64Flag{
	Name:  "energy",
	Usage: "maximum energy of the call, defaults to the configured limit",
}

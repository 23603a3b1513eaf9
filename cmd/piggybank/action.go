package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/contracts/bank"
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/chain"
	"go.dedis.ch/piggybank/core/execution"
	"go.dedis.ch/piggybank/core/store/kv"
	"go.dedis.ch/piggybank/core/txn"
	"go.dedis.ch/piggybank/core/txn/signed"
	"go.dedis.ch/piggybank/crypto/ed25519"
	"golang.org/x/xerrors"
)

// action defines the actions of the commands. The printer and the signals can
// be replaced in tests.
type action struct {
	printer io.Writer
	signals <-chan os.Signal
}

func (a action) configAction(flags cli.Flags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if !isDriver(cfg.Driver) {
		return xerrors.Errorf("unknown driver '%s', expected one of %v", cfg.Driver, kv.Drivers())
	}

	dir := flags.Path("config")

	err = saveConfig(dir, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.printer, "config written to %s\n", filepath.Join(dir, ConfigFile))

	return nil
}

func (a action) createAccountAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	name := flags.String("name")

	l, err := e.keyLoader(name)
	if err != nil {
		return err
	}

	data, err := l.LoadOrCreate(signerGenerator{})
	if err != nil {
		return xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return xerrors.Errorf("failed to decode key: %v", err)
	}

	balance := flags.Uint64("balance")

	addr, err := e.chain.CreateAccount(signer.GetPublicKey(), balance)
	if err != nil {
		return xerrors.Errorf("failed to create account: %v", err)
	}

	fmt.Fprintf(a.printer, "account %s created: %s balance=%d\n", name, addressText(addr), balance)

	return nil
}

func (a action) balanceAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	signer, err := e.signer(flags.String("name"))
	if err != nil {
		return err
	}

	addr, err := access.AccountOf(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("failed to derive account: %v", err)
	}

	acc, err := e.chain.Account(addr)
	if err != nil {
		return xerrors.Errorf("failed to read account: %v", err)
	}

	fmt.Fprintf(a.printer, "%s balance=%d nonce=%d\n", addressText(acc.Address), acc.Balance, acc.Nonce)

	return nil
}

func (a action) initAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	outcome, err := e.submit(flags.String("sender"),
		txn.NewArg(txn.KindArg, txn.InitKind),
		txn.NewArg(txn.ContractArg, bank.ContractName),
		txn.NewUint64Arg(txn.AmountArg, flags.Uint64("amount")),
		txn.NewUint64Arg(txn.EnergyArg, flags.Uint64("energy")),
	)
	if err != nil {
		return err
	}

	if !outcome.Result.Accepted {
		return xerrors.Errorf("init rejected: %s", describe(outcome.Result))
	}

	fmt.Fprintf(a.printer, "contract %d created (energy=%d fee=%d)\n",
		outcome.Address.Index, outcome.Energy, outcome.Fee)

	return nil
}

func (a action) insertAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	amount := flags.Uint64("amount")

	outcome, err := e.submit(flags.String("sender"),
		updateArgs(flags, bank.InsertEntrypoint, amount)...)
	if err != nil {
		return err
	}

	if !outcome.Result.Accepted {
		return xerrors.Errorf("insert rejected: %s", describe(outcome.Result))
	}

	fmt.Fprintf(a.printer, "inserted %d into contract %d (energy=%d fee=%d)\n",
		amount, outcome.Address.Index, outcome.Energy, outcome.Fee)

	return nil
}

func (a action) smashAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	outcome, err := e.submit(flags.String("sender"),
		updateArgs(flags, bank.SmashEntrypoint, 0)...)
	if err != nil {
		return err
	}

	if !outcome.Result.Accepted {
		return xerrors.Errorf("smash rejected: %s", describe(outcome.Result))
	}

	fmt.Fprintf(a.printer, "smashed contract %d (energy=%d fee=%d)\n",
		outcome.Address.Index, outcome.Energy, outcome.Fee)

	return nil
}

func (a action) viewAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	view, err := viewContract(e.chain, flags.Uint64("contract"))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.printer, "balance=%d state=%v\n", view.Balance, view.State)

	return nil
}

func (a action) listAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	instances, err := e.chain.Instances()
	if err != nil {
		return xerrors.Errorf("failed to list: %v", err)
	}

	for _, inst := range instances {
		view, err := viewOf(e.exec, inst)
		if err != nil {
			return xerrors.Errorf("contract %d: %v", inst.Address.Index, err)
		}

		fmt.Fprintf(a.printer, "contract %d owner=%s balance=%d state=%s\n",
			view.Index, addressText(view.Owner), view.Balance, view.State)
	}

	return nil
}

// submit creates a transaction signed by the account name and executes it.
func (e *env) submit(sender string, args ...txn.Arg) (chain.Outcome, error) {
	signer, err := e.signer(sender)
	if err != nil {
		return chain.Outcome{}, err
	}

	mgr := signed.NewManager(signer, e.chain)

	err = mgr.Sync()
	if err != nil {
		return chain.Outcome{}, xerrors.Errorf("failed to sync manager: %v", err)
	}

	tx, err := mgr.Make(args...)
	if err != nil {
		return chain.Outcome{}, xerrors.Errorf("failed to make transaction: %v", err)
	}

	outcome, err := e.chain.Execute(tx)
	if err != nil {
		return outcome, xerrors.Errorf("failed to execute: %v", err)
	}

	return outcome, nil
}

// viewContract calls the view entrypoint of the instance without committing
// anything.
func viewContract(ch *chain.Chain, index uint64) (bank.ViewResult, error) {
	addr := access.ContractAddress{Index: index}

	res, err := ch.Invoke(addr, bank.ViewEntrypoint, access.NewContractSender(addr), 0, nil)
	if err != nil {
		return bank.ViewResult{}, xerrors.Errorf("failed to invoke: %w", err)
	}

	if !res.Accepted {
		return bank.ViewResult{}, xerrors.Errorf("view rejected: %s", describe(res))
	}

	view, err := bank.ParseViewResult(res.ReturnValue)
	if err != nil {
		return bank.ViewResult{}, xerrors.Errorf("failed to decode view: %v", err)
	}

	return view, nil
}

func updateArgs(flags cli.Flags, entrypoint string, amount uint64) []txn.Arg {
	return []txn.Arg{
		txn.NewArg(txn.KindArg, txn.UpdateKind),
		txn.NewUint64Arg(txn.AddressArg, flags.Uint64("contract")),
		txn.NewArg(txn.EntrypointArg, entrypoint),
		txn.NewUint64Arg(txn.AmountArg, amount),
		txn.NewUint64Arg(txn.EnergyArg, flags.Uint64("energy")),
	}
}

// describe returns the reason of a rejected call in a human readable form.
func describe(res execution.Result) string {
	smashErr, ok := bank.SmashErrorOf(res)
	if ok {
		return smashErr.Error()
	}

	if res.Message != "" {
		return fmt.Sprintf("%s (%s)", execution.ReasonName(res.Reason), res.Message)
	}

	return execution.ReasonName(res.Reason)
}

// addressText returns the full hexadecimal form of the address.
func addressText(addr access.AccountAddress) string {
	text, _ := addr.MarshalText()
	return string(text)
}

func isDriver(name string) bool {
	for _, driver := range kv.Drivers() {
		if string(driver) == name {
			return true
		}
	}

	return false
}

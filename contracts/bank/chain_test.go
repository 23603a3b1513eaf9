package bank

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/chain"
	"go.dedis.ch/piggybank/core/execution"
	"go.dedis.ch/piggybank/core/execution/native"
	"go.dedis.ch/piggybank/core/store/kv"
	"go.dedis.ch/piggybank/core/txn"
	"go.dedis.ch/piggybank/core/txn/signed"
	"go.dedis.ch/piggybank/crypto/ed25519"
)

// accInitialBalance is the initial balance of the test accounts.
const accInitialBalance = 10_000 * 1_000_000

const energy = 10_000

func TestChain_Init(t *testing.T) {
	ch, alice, _, addr := setupChainAndContract(t)

	balance, err := ch.ContractBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)

	inst, err := ch.Instance(addr)
	require.NoError(t, err)
	require.Equal(t, ContractName, inst.Contract)
	require.Equal(t, alice.addr, inst.Owner)
	require.Equal(t, []byte{byte(Intact)}, inst.State)
}

func TestChain_InitNotPayable(t *testing.T) {
	ch, alice, _, _ := setupChainAndContract(t)

	outcome := alice.execute(t, ch, initArgs(5)...)
	require.False(t, outcome.Result.Accepted)
	require.Equal(t, execution.RejectNotPayable, outcome.Result.Reason)

	_, err := ch.Instance(access.ContractAddress{Index: 1})
	require.ErrorIs(t, err, chain.ErrUnknownInstance)
}

func TestChain_InsertIntact(t *testing.T) {
	ch, alice, _, addr := setupChainAndContract(t)

	outcome := alice.execute(t, ch, insertArgs(addr, 10)...)
	require.True(t, outcome.Result.Accepted)

	balance, err := ch.ContractBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(10), balance)

	require.Equal(t, accInitialBalance-alice.fees-10, alice.balance(t, ch))
}

func TestChain_InsertSmashed(t *testing.T) {
	ch, alice, _, addr := setupChainAndContract(t)

	alice.execute(t, ch, insertArgs(addr, 10)...)
	alice.execute(t, ch, smashArgs(addr)...)

	outcome := alice.execute(t, ch, insertArgs(addr, 5)...)
	require.False(t, outcome.Result.Accepted)
	require.Equal(t, execution.RejectUnspecified, outcome.Result.Reason)
	require.Empty(t, outcome.Result.ReturnValue)

	balance, err := ch.ContractBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)

	// The deposit is reverted, only the fees are paid.
	require.Equal(t, accInitialBalance-alice.fees, alice.balance(t, ch))
}

func TestChain_InsertZero(t *testing.T) {
	ch, alice, james, addr := setupChainAndContract(t)

	outcome := james.execute(t, ch, insertArgs(addr, 0)...)
	require.True(t, outcome.Result.Accepted)
	require.Equal(t, ViewResult{Balance: 0, State: Intact}, viewOf(t, ch, addr, james.addr))

	james.execute(t, ch, insertArgs(addr, 4)...)

	outcome = james.execute(t, ch, insertArgs(addr, 0)...)
	require.True(t, outcome.Result.Accepted)
	require.Equal(t, ViewResult{Balance: 4, State: Intact}, viewOf(t, ch, addr, james.addr))
	require.Equal(t, accInitialBalance-james.fees-4, james.balance(t, ch))

	outcome = alice.execute(t, ch, smashArgs(addr)...)
	require.True(t, outcome.Result.Accepted)

	outcome = james.execute(t, ch, insertArgs(addr, 0)...)
	require.False(t, outcome.Result.Accepted)
	require.Equal(t, execution.RejectUnspecified, outcome.Result.Reason)
	require.Empty(t, outcome.Result.ReturnValue)
	require.Equal(t, ViewResult{Balance: 0, State: Smashed}, viewOf(t, ch, addr, james.addr))

	outcome = james.execute(t, ch, smashArgs(addr)...)
	smashErr, ok := SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, NotOwner, smashErr)
}

func TestChain_SmashNotOwner(t *testing.T) {
	ch, _, james, addr := setupChainAndContract(t)

	outcome := james.execute(t, ch, smashArgs(addr)...)
	require.False(t, outcome.Result.Accepted)

	smashErr, ok := SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, NotOwner, smashErr)
	require.Equal(t, []byte{byte(NotOwner)}, outcome.Result.ReturnValue)

	require.Equal(t, accInitialBalance-outcome.Fee, james.balance(t, ch))
}

func TestChain_SmashOwner(t *testing.T) {
	ch, alice, _, addr := setupChainAndContract(t)

	alice.execute(t, ch, insertArgs(addr, 10)...)

	outcome := alice.execute(t, ch, smashArgs(addr)...)
	require.True(t, outcome.Result.Accepted)

	balance, err := ch.ContractBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(0), balance)

	require.Equal(t, accInitialBalance-alice.fees, alice.balance(t, ch))

	outcome = alice.execute(t, ch, smashArgs(addr)...)
	smashErr, ok := SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, AlreadySmashed, smashErr)
}

func TestChain_SmashTransferError(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)

	defer db.Close()

	ch := newChain(t, db)

	// The balance of the owner cannot receive the content of the piggy bank.
	owner := newTestAccountWithBalance(t, ch, math.MaxUint64-100)
	james := newTestAccount(t, ch)

	outcome := owner.execute(t, ch, initArgs(0)...)
	require.True(t, outcome.Result.Accepted)

	addr := outcome.Address

	outcome = james.execute(t, ch, insertArgs(addr, 1000)...)
	require.True(t, outcome.Result.Accepted)

	before := owner.balance(t, ch)

	outcome = owner.execute(t, ch, smashArgs(addr)...)
	require.False(t, outcome.Result.Accepted)

	smashErr, ok := SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, TransferError, smashErr)

	// The state change is discarded with the transfer.
	require.Equal(t, ViewResult{Balance: 1000, State: Intact}, viewOf(t, ch, addr, owner.addr))
	require.Equal(t, before-outcome.Fee, owner.balance(t, ch))
}

func TestChain_View(t *testing.T) {
	ch, _, james, addr := setupChainAndContract(t)

	james.execute(t, ch, insertArgs(addr, 7)...)

	view := viewOf(t, ch, addr, james.addr)
	require.Equal(t, ViewResult{Balance: 7, State: Intact}, view)
}

func TestChain_ViewOutOfEnergy(t *testing.T) {
	db, err := kv.New(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)

	defer db.Close()

	exec := native.NewExecution()
	RegisterContract(exec, NewContract())

	// Dry runs use the limit of the chain, transactions set their own.
	ch, err := chain.NewChain(db, exec, chain.WithEnergyLimit(5))
	require.NoError(t, err)

	alice := newTestAccount(t, ch)

	outcome := alice.execute(t, ch, initArgs(0)...)
	require.True(t, outcome.Result.Accepted)

	res, err := ch.Invoke(outcome.Address, ViewEntrypoint, access.NewAccountSender(alice.addr), 0, nil)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, execution.RejectOutOfEnergy, res.Reason)
}

// Owner A, non-owner B: A inserts 10, B fails to smash, A smashes and gets
// the balance back, a second smash fails.
func TestChain_Scenario(t *testing.T) {
	ch, alice, james, addr := setupChainAndContract(t)

	outcome := alice.execute(t, ch, insertArgs(addr, 10)...)
	require.True(t, outcome.Result.Accepted)
	require.Equal(t, ViewResult{Balance: 10, State: Intact}, viewOf(t, ch, addr, alice.addr))

	outcome = james.execute(t, ch, smashArgs(addr)...)
	smashErr, ok := SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, NotOwner, smashErr)
	require.Equal(t, ViewResult{Balance: 10, State: Intact}, viewOf(t, ch, addr, alice.addr))

	before := alice.balance(t, ch)

	outcome = alice.execute(t, ch, smashArgs(addr)...)
	require.True(t, outcome.Result.Accepted)
	require.Equal(t, ViewResult{Balance: 0, State: Smashed}, viewOf(t, ch, addr, alice.addr))
	require.Equal(t, before+10-outcome.Fee, alice.balance(t, ch))

	outcome = alice.execute(t, ch, smashArgs(addr)...)
	smashErr, ok = SmashErrorOf(outcome.Result)
	require.True(t, ok)
	require.Equal(t, AlreadySmashed, smashErr)
	require.Equal(t, ViewResult{Balance: 0, State: Smashed}, viewOf(t, ch, addr, alice.addr))
}

func TestChain_Persistence(t *testing.T) {
	dir := t.TempDir()

	for _, driver := range kv.Drivers() {
		path := filepath.Join(dir, string(driver)+".db")

		db, err := kv.Open(driver, path)
		require.NoError(t, err)

		ch := newChain(t, db)
		alice := newTestAccount(t, ch)

		outcome := alice.execute(t, ch, initArgs(0)...)
		require.True(t, outcome.Result.Accepted)

		alice.execute(t, ch, insertArgs(outcome.Address, 3)...)
		require.NoError(t, db.Close())

		db, err = kv.Open(driver, path)
		require.NoError(t, err)

		ch = newChain(t, db)
		require.Equal(t, ViewResult{Balance: 3, State: Intact}, viewOf(t, ch, outcome.Address, alice.addr))
		require.NoError(t, db.Close())
	}
}

// -----------------------------------------------------------------------------
// Utility functions

type testAccount struct {
	addr access.AccountAddress
	mgr  *signed.TransactionManager
	fees uint64
}

func newTestAccount(t *testing.T, ch *chain.Chain) *testAccount {
	return newTestAccountWithBalance(t, ch, accInitialBalance)
}

func newTestAccountWithBalance(t *testing.T, ch *chain.Chain, balance uint64) *testAccount {
	signer := ed25519.NewSigner()

	addr, err := ch.CreateAccount(signer.GetPublicKey(), balance)
	require.NoError(t, err)

	mgr := signed.NewManager(signer, ch)
	require.NoError(t, mgr.Sync())

	return &testAccount{addr: addr, mgr: mgr}
}

func (a *testAccount) execute(t *testing.T, ch *chain.Chain, args ...txn.Arg) chain.Outcome {
	tx, err := a.mgr.Make(args...)
	require.NoError(t, err)

	outcome, err := ch.Execute(tx)
	require.NoError(t, err)

	a.fees += outcome.Fee

	return outcome
}

func (a *testAccount) balance(t *testing.T, ch *chain.Chain) uint64 {
	balance, err := ch.AccountBalance(a.addr)
	require.NoError(t, err)

	return balance
}

func newChain(t *testing.T, db kv.DB) *chain.Chain {
	exec := native.NewExecution()
	RegisterContract(exec, NewContract())

	ch, err := chain.NewChain(db, exec)
	require.NoError(t, err)

	return ch
}

func setupChainAndContract(t *testing.T) (*chain.Chain, *testAccount, *testAccount, access.ContractAddress) {
	db, err := kv.New(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	ch := newChain(t, db)

	alice := newTestAccount(t, ch)
	james := newTestAccount(t, ch)

	outcome := alice.execute(t, ch, initArgs(0)...)
	require.True(t, outcome.Result.Accepted, outcome.Result.Message)

	return ch, alice, james, outcome.Address
}

func initArgs(amount uint64) []txn.Arg {
	return []txn.Arg{
		txn.NewArg(txn.KindArg, txn.InitKind),
		txn.NewArg(txn.ContractArg, ContractName),
		txn.NewUint64Arg(txn.AmountArg, amount),
		txn.NewUint64Arg(txn.EnergyArg, energy),
	}
}

func insertArgs(addr access.ContractAddress, amount uint64) []txn.Arg {
	return []txn.Arg{
		txn.NewArg(txn.KindArg, txn.UpdateKind),
		txn.NewUint64Arg(txn.AddressArg, addr.Index),
		txn.NewArg(txn.EntrypointArg, InsertEntrypoint),
		txn.NewUint64Arg(txn.AmountArg, amount),
		txn.NewUint64Arg(txn.EnergyArg, energy),
	}
}

func smashArgs(addr access.ContractAddress) []txn.Arg {
	return []txn.Arg{
		txn.NewArg(txn.KindArg, txn.UpdateKind),
		txn.NewUint64Arg(txn.AddressArg, addr.Index),
		txn.NewArg(txn.EntrypointArg, SmashEntrypoint),
		txn.NewUint64Arg(txn.EnergyArg, energy),
	}
}

func viewOf(t *testing.T, ch *chain.Chain, addr access.ContractAddress, sender access.AccountAddress) ViewResult {
	res, err := ch.Invoke(addr, ViewEntrypoint, access.NewAccountSender(sender), 0, nil)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	view, err := ParseViewResult(res.ReturnValue)
	require.NoError(t, err)

	return view
}

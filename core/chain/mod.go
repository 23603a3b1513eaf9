// Package chain implements a local ledger that hosts native contracts.
//
// The ledger keeps accounts, identified by the digest of their public key, and
// contract instances. A transaction is executed in a staged snapshot on top of
// the database: the changes of the call are written in a single database
// transaction when the call is accepted, and dropped otherwise. The fee and the
// nonce of the sender are committed in both cases.
//
// Transactions are executed one at a time.
package chain

import (
	"math"
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/piggybank"
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/execution"
	"go.dedis.ch/piggybank/core/execution/native"
	"go.dedis.ch/piggybank/core/store"
	"go.dedis.ch/piggybank/core/store/kv"
	"go.dedis.ch/piggybank/core/store/mem"
	"go.dedis.ch/piggybank/core/txn"
	"go.dedis.ch/piggybank/crypto"
	"go.dedis.ch/piggybank/internal/tracing"
	"golang.org/x/xerrors"
)

var bucketName = []byte("piggybank")

var (
	// ErrUnknownAccount is returned when the account does not exist.
	ErrUnknownAccount = xerrors.New("unknown account")

	// ErrUnknownInstance is returned when the contract instance does not
	// exist.
	ErrUnknownInstance = xerrors.New("unknown instance")

	// ErrInvalidNonce is returned when the nonce of a transaction is not the
	// next one of the account.
	ErrInvalidNonce = xerrors.New("invalid nonce")

	// ErrInsufficientFunds is returned when the account cannot pay for the
	// amount and the maximum fee of a transaction.
	ErrInsufficientFunds = xerrors.New("insufficient funds")
)

// errRejectedCall aborts the staging of a call refused by the contract.
var errRejectedCall = xerrors.New("call rejected")

// Outcome is the result of the execution of a transaction.
type Outcome struct {
	// TxID is the identifier of the transaction.
	TxID []byte

	// Address is the address of the instance that has been called or
	// created.
	Address access.ContractAddress

	Result execution.Result

	// Fee is the amount paid by the sender for the energy.
	Fee uint64

	// Energy is the energy used by the call.
	Energy uint64
}

// Account is the public view of an account.
type Account struct {
	Address access.AccountAddress
	Balance uint64
	Nonce   uint64
}

// Instance is the public view of a contract instance.
type Instance struct {
	Address  access.ContractAddress
	Contract string
	Owner    access.AccountAddress
	Balance  uint64
	State    []byte
}

// Chain is a ledger persisted in a key/value database.
type Chain struct {
	sync.Mutex

	db       kv.DB
	reader   dbReader
	exec     *native.Service
	price    uint64
	limit    uint64
	schedule Schedule
	tracer   opentracing.Tracer
	logger   zerolog.Logger
}

// getTracer returns the tracer of a service.
var getTracer = tracing.GetTracer

type template struct {
	Chain

	service string
}

// Option is the type of options to create a chain.
type Option func(*template)

// WithEnergyPrice sets the amount paid per unit of energy. The default price
// is one.
func WithEnergyPrice(price uint64) Option {
	return func(tmpl *template) {
		tmpl.price = price
	}
}

// WithEnergyLimit sets the energy given to a call that does not set its own
// limit.
func WithEnergyLimit(limit uint64) Option {
	return func(tmpl *template) {
		tmpl.limit = limit
	}
}

// WithSchedule sets the energy cost of the operations.
func WithSchedule(s Schedule) Option {
	return func(tmpl *template) {
		tmpl.schedule = s
	}
}

// WithTracing enables the tracing of the executions with a jaeger tracer for
// the service name.
func WithTracing(service string) Option {
	return func(tmpl *template) {
		tmpl.service = service
	}
}

// NewChain creates a new chain on top of the database. The contracts that can
// be instantiated are the ones registered in the execution service.
func NewChain(db kv.DB, exec *native.Service, opts ...Option) (*Chain, error) {
	tmpl := template{
		Chain: Chain{
			db:       db,
			reader:   dbReader{db: db, bucket: bucketName},
			exec:     exec,
			price:    1,
			limit:    DefaultEnergyLimit,
			schedule: DefaultSchedule,
			tracer:   opentracing.NoopTracer{},
			logger:   piggybank.Logger.With().Str("component", "chain").Logger(),
		},
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	if tmpl.service != "" {
		tracer, err := getTracer(tmpl.service)
		if err != nil {
			return nil, xerrors.Errorf("failed to get tracer: %v", err)
		}

		tmpl.tracer = tracer
	}

	// The bucket must exist for the read-only transactions.
	err := db.Update(bucketName, func(kv.Bucket) error { return nil })
	if err != nil {
		return nil, xerrors.Errorf("failed to create bucket: %v", err)
	}

	count, err := tmpl.countInstances()
	if err != nil {
		return nil, xerrors.Errorf("failed to read instances: %v", err)
	}

	promInstances.Set(float64(count))

	return &tmpl.Chain, nil
}

// CreateAccount creates a new account for the public key with the initial
// balance. It returns the address of the account.
func (c *Chain) CreateAccount(pubkey crypto.PublicKey, balance uint64) (access.AccountAddress, error) {
	c.Lock()
	defer c.Unlock()

	addr, err := access.AccountOf(pubkey)
	if err != nil {
		return addr, xerrors.Errorf("failed to derive address: %v", err)
	}

	_, found, err := readAccount(c.reader, addr)
	if err != nil {
		return addr, xerrors.Errorf("failed to read: %v", err)
	}

	if found {
		return addr, xerrors.Errorf("account %v already exists", addr)
	}

	data, err := pubkey.MarshalBinary()
	if err != nil {
		return addr, xerrors.Errorf("failed to marshal key: %v", err)
	}

	work := mem.NewTrie(c.reader)

	err = writeAccount(work, addr, accountRecord{PublicKey: data, Balance: balance})
	if err != nil {
		return addr, err
	}

	err = c.flush(work)
	if err != nil {
		return addr, xerrors.Errorf("failed to commit: %v", err)
	}

	c.logger.Info().Stringer("account", addr).Uint64("balance", balance).Msg("account created")

	return addr, nil
}

// Execute verifies and executes the transaction. It returns an error if the
// transaction is invalid, in which case nothing is committed. Otherwise the
// outcome tells if the call has been accepted.
func (c *Chain) Execute(tx txn.Transaction) (Outcome, error) {
	c.Lock()
	defer c.Unlock()

	kind := string(tx.GetArg(txn.KindArg))

	span := c.tracer.StartSpan("execute")
	defer span.Finish()

	span.SetTag("kind", kind)

	if kind == txn.InitKind {
		span.SetTag(tracing.ContractTag, string(tx.GetArg(txn.ContractArg)))
		span.SetTag(tracing.EntrypointTag, tracing.InitEntrypoint)
	} else {
		span.SetTag(tracing.EntrypointTag, string(tx.GetArg(txn.EntrypointArg)))
	}

	logger := c.logger.With().Stringer("xid", xid.New()).Logger()

	outcome := Outcome{TxID: tx.GetID()}

	invoker, err := access.AccountOf(tx.GetPublicKey())
	if err != nil {
		return outcome, xerrors.Errorf("failed to derive account: %v", err)
	}

	work := mem.NewTrie(c.reader)

	acc, found, err := readAccount(work, invoker)
	if err != nil {
		return outcome, xerrors.Errorf("failed to read sender: %v", err)
	}

	if !found {
		return outcome, xerrors.Errorf("sender %v: %w", invoker, ErrUnknownAccount)
	}

	if tx.GetNonce() != acc.Nonce {
		return outcome, xerrors.Errorf("expected %d but got %d: %w",
			acc.Nonce, tx.GetNonce(), ErrInvalidNonce)
	}

	if tx.GetSignature() == nil {
		return outcome, xerrors.New("missing signature")
	}

	err = tx.GetPublicKey().Verify(tx.GetID(), tx.GetSignature())
	if err != nil {
		return outcome, xerrors.Errorf("invalid signature: %v", err)
	}

	amount, err := txn.Uint64Of(tx, txn.AmountArg)
	if err != nil {
		return outcome, xerrors.Errorf("invalid amount: %v", err)
	}

	limit, err := txn.Uint64Of(tx, txn.EnergyArg)
	if err != nil {
		return outcome, xerrors.Errorf("invalid energy: %v", err)
	}

	if limit == 0 {
		limit = c.limit
	}

	if c.price > 0 && limit > math.MaxUint64/c.price {
		return outcome, xerrors.Errorf("energy limit %d too high", limit)
	}

	maxFee := limit * c.price

	if amount > math.MaxUint64-maxFee || acc.Balance < amount+maxFee {
		return outcome, xerrors.Errorf("%d < %d + %d: %w", acc.Balance, amount, maxFee, ErrInsufficientFunds)
	}

	meter := newMeter(limit)

	staged, err := work.Stage(func(snap store.Snapshot) error {
		var res execution.Result
		var err error

		switch kind {
		case txn.InitKind:
			outcome.Address, res, err = c.init(snap, tx, invoker, amount, meter)
		case txn.UpdateKind:
			outcome.Address, res, err = c.update(snap, tx, invoker, amount, meter)
		default:
			err = xerrors.Errorf("unknown kind '%s'", kind)
		}

		if meter.exhausted {
			res = execution.ResultOf(nil, execution.Reject(execution.RejectOutOfEnergy, nil))
			err = nil
		}

		outcome.Result = res

		if err != nil {
			return err
		}

		if !res.Accepted {
			return errRejectedCall
		}

		return nil
	})

	if err == nil {
		err = work.Merge(staged)
		if err != nil {
			return outcome, xerrors.Errorf("failed to merge: %v", err)
		}
	} else if err != errRejectedCall {
		outcome.Result = execution.Result{
			Message: err.Error(),
			Reason:  execution.RejectUnspecified,
		}
	}

	if kind == txn.InitKind && !outcome.Result.Accepted {
		outcome.Address = access.ContractAddress{}
	}

	outcome.Energy = meter.used
	outcome.Fee = meter.used * c.price

	// The amount debit is discarded when rejected, the fee is always paid.
	acc, _, err = readAccount(work, invoker)
	if err != nil {
		return outcome, xerrors.Errorf("failed to read sender: %v", err)
	}

	acc.Balance -= outcome.Fee
	acc.Nonce++

	err = writeAccount(work, invoker, acc)
	if err != nil {
		return outcome, xerrors.Errorf("failed to charge fee: %v", err)
	}

	err = c.flush(work)
	if err != nil {
		return outcome, xerrors.Errorf("failed to commit: %v", err)
	}

	label := "rejected"
	if outcome.Result.Accepted {
		label = "accepted"

		if kind == txn.InitKind {
			promInstances.Inc()
		}
	}

	promTxs.WithLabelValues(kind, label).Inc()
	promEnergy.Add(float64(outcome.Energy))

	span.SetTag("accepted", outcome.Result.Accepted)

	logger.Info().
		Str("kind", kind).
		Stringer("sender", invoker).
		Stringer("instance", outcome.Address).
		Bool("accepted", outcome.Result.Accepted).
		Int32("reason", outcome.Result.Reason).
		Uint64("energy", outcome.Energy).
		Uint64("fee", outcome.Fee).
		Msg("transaction executed")

	return outcome, nil
}

// Invoke runs the entrypoint of an instance without committing anything and
// without any fee. The amount is credited to the instance for the duration
// of the call only.
func (c *Chain) Invoke(addr access.ContractAddress, entrypoint string,
	sender access.Address, amount uint64, parameter []byte) (execution.Result, error) {

	c.Lock()
	defer c.Unlock()

	span := c.tracer.StartSpan("invoke")
	defer span.Finish()

	span.SetTag(tracing.EntrypointTag, entrypoint)

	work := mem.NewTrie(c.reader)

	var res execution.Result

	_, err := work.Stage(func(snap store.Snapshot) error {
		inst, err := c.loadInstance(snap, addr)
		if err != nil {
			return err
		}

		span.SetTag(tracing.ContractTag, inst.Contract)

		if inst.Balance > math.MaxUint64-amount {
			return xerrors.Errorf("balance overflow")
		}

		inst.Balance += amount

		invoker, ok := sender.Account()
		if !ok {
			invoker = inst.Owner
		}

		step := execution.Step{
			Entrypoint: entrypoint,
			Amount:     amount,
			Parameter:  parameter,
			Context: callContext{
				owner:   inst.Owner,
				sender:  sender,
				invoker: invoker,
				self:    addr,
			},
		}

		meter := newMeter(c.limit)

		res, err = c.exec.Execute(inst.Contract, c.newHost(snap, addr.Index, &inst, meter), step)
		if err != nil {
			return xerrors.Errorf("failed to execute: %v", err)
		}

		if meter.exhausted {
			res = execution.ResultOf(nil, execution.Reject(execution.RejectOutOfEnergy, nil))
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

// GetNonce implements signed.Client. It returns the nonce of the next
// transaction of the account.
func (c *Chain) GetNonce(addr access.AccountAddress) (uint64, error) {
	acc, err := c.Account(addr)
	if err != nil {
		return 0, err
	}

	return acc.Nonce, nil
}

// AccountBalance returns the balance of the account.
func (c *Chain) AccountBalance(addr access.AccountAddress) (uint64, error) {
	acc, err := c.Account(addr)
	if err != nil {
		return 0, err
	}

	return acc.Balance, nil
}

// Account returns the account of the address.
func (c *Chain) Account(addr access.AccountAddress) (Account, error) {
	c.Lock()
	defer c.Unlock()

	rec, found, err := readAccount(c.reader, addr)
	if err != nil {
		return Account{}, err
	}

	if !found {
		return Account{}, xerrors.Errorf("account %v: %w", addr, ErrUnknownAccount)
	}

	acc := Account{
		Address: addr,
		Balance: rec.Balance,
		Nonce:   rec.Nonce,
	}

	return acc, nil
}

// ContractBalance returns the balance of the instance.
func (c *Chain) ContractBalance(addr access.ContractAddress) (uint64, error) {
	inst, err := c.Instance(addr)
	if err != nil {
		return 0, err
	}

	return inst.Balance, nil
}

// Instance returns the instance of the address, including its state.
func (c *Chain) Instance(addr access.ContractAddress) (Instance, error) {
	c.Lock()
	defer c.Unlock()

	rec, err := c.loadInstance(c.reader, addr)
	if err != nil {
		return Instance{}, err
	}

	state, err := c.reader.Get(stateKey(addr.Index))
	if err != nil {
		return Instance{}, xerrors.Errorf("failed to read state: %v", err)
	}

	inst := Instance{
		Address:  addr,
		Contract: rec.Contract,
		Owner:    rec.Owner,
		Balance:  rec.Balance,
		State:    state,
	}

	return inst, nil
}

// Instances returns the contract instances in the order of their index.
func (c *Chain) Instances() ([]Instance, error) {
	c.Lock()
	defer c.Unlock()

	var instances []Instance

	err := c.db.View(bucketName, func(b kv.Bucket) error {
		return b.Scan(instancePrefix, func(key, value []byte) error {
			index, rec, err := decodeInstance(key, value)
			if err != nil {
				return err
			}

			inst := Instance{
				Address:  access.ContractAddress{Index: index},
				Contract: rec.Contract,
				Owner:    rec.Owner,
				Balance:  rec.Balance,
			}

			state := b.Get(stateKey(index))
			if state != nil {
				inst.State = append([]byte{}, state...)
			}

			instances = append(instances, inst)

			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to scan instances: %v", err)
	}

	return instances, nil
}

func (c *Chain) init(snap store.Snapshot, tx txn.Transaction, invoker access.AccountAddress,
	amount uint64, m *meter) (access.ContractAddress, execution.Result, error) {

	var addr access.ContractAddress

	err := m.charge(c.schedule.Init)
	if err != nil {
		return addr, execution.ResultOf(nil, err), nil
	}

	name := string(tx.GetArg(txn.ContractArg))

	if !c.exec.Has(name) {
		return addr, execution.Result{}, xerrors.Errorf("failed to initialize: unknown contract '%s'", name)
	}

	index, err := readNextIndex(snap)
	if err != nil {
		return addr, execution.Result{}, err
	}

	addr.Index = index

	inst := instanceRecord{
		Contract: name,
		Owner:    invoker,
	}

	err = writeInstance(snap, index, inst)
	if err != nil {
		return addr, execution.Result{}, err
	}

	err = writeNextIndex(snap, index+1)
	if err != nil {
		return addr, execution.Result{}, err
	}

	ctx := callContext{
		owner:   invoker,
		sender:  access.NewAccountSender(invoker),
		invoker: invoker,
		self:    addr,
	}

	res, err := c.exec.Init(name, ctx, c.newHost(snap, index, &inst, m), amount)
	if err != nil {
		return addr, execution.Result{}, xerrors.Errorf("failed to initialize: %v", err)
	}

	return addr, res, nil
}

func (c *Chain) update(snap store.Snapshot, tx txn.Transaction, invoker access.AccountAddress,
	amount uint64, m *meter) (access.ContractAddress, execution.Result, error) {

	var addr access.ContractAddress

	err := m.charge(c.schedule.Update)
	if err != nil {
		return addr, execution.ResultOf(nil, err), nil
	}

	addr.Index, err = txn.Uint64Of(tx, txn.AddressArg)
	if err != nil {
		res := execution.Result{
			Message: xerrors.Errorf("invalid address: %v", err).Error(),
			Reason:  execution.RejectParse,
		}

		return addr, res, nil
	}

	inst, err := c.loadInstance(snap, addr)
	if err != nil {
		return addr, execution.Result{}, err
	}

	// The amount is moved before the call so that the balance of the
	// instance includes it.
	acc, _, err := readAccount(snap, invoker)
	if err != nil {
		return addr, execution.Result{}, err
	}

	if inst.Balance > math.MaxUint64-amount {
		return addr, execution.Result{}, xerrors.New("balance overflow")
	}

	acc.Balance -= amount
	inst.Balance += amount

	err = writeAccount(snap, invoker, acc)
	if err != nil {
		return addr, execution.Result{}, err
	}

	err = writeInstance(snap, addr.Index, inst)
	if err != nil {
		return addr, execution.Result{}, err
	}

	step := execution.Step{
		Entrypoint: string(tx.GetArg(txn.EntrypointArg)),
		Amount:     amount,
		Parameter:  tx.GetArg(txn.ParameterArg),
		Context: callContext{
			owner:   inst.Owner,
			sender:  access.NewAccountSender(invoker),
			invoker: invoker,
			self:    addr,
		},
	}

	res, err := c.exec.Execute(inst.Contract, c.newHost(snap, addr.Index, &inst, m), step)
	if err != nil {
		return addr, execution.Result{}, xerrors.Errorf("failed to execute: %v", err)
	}

	return addr, res, nil
}

func (c *Chain) newHost(snap store.Snapshot, index uint64, inst *instanceRecord, m *meter) *host {
	return &host{
		snap:     snap,
		index:    index,
		instance: inst,
		meter:    m,
		schedule: c.schedule,
	}
}

func (c *Chain) loadInstance(r store.Readable, addr access.ContractAddress) (instanceRecord, error) {
	if addr.Subindex != 0 {
		return instanceRecord{}, xerrors.Errorf("instance %v: %w", addr, ErrUnknownInstance)
	}

	inst, found, err := readInstance(r, addr.Index)
	if err != nil {
		return inst, err
	}

	if !found {
		return inst, xerrors.Errorf("instance %v: %w", addr, ErrUnknownInstance)
	}

	return inst, nil
}

func (c *Chain) countInstances() (uint64, error) {
	return readNextIndex(c.reader)
}

// flush writes the updates of the trie in a single database transaction.
func (c *Chain) flush(trie *mem.Trie) error {
	c.logger.Debug().Int("updates", trie.Len()).Msg("flushing")

	return c.db.Update(bucketName, func(b kv.Bucket) error {
		return trie.Updates(func(key, value []byte) error {
			if value == nil {
				return b.Delete(key)
			}

			return b.Set(key, value)
		})
	})
}

// dbReader reads the committed values of the database.
//
// - implements store.Readable
type dbReader struct {
	db     kv.DB
	bucket []byte
}

// Get implements store.Readable. It returns the value of the key, or nil if it
// does not exist.
func (r dbReader) Get(key []byte) ([]byte, error) {
	var value []byte

	err := r.db.View(r.bucket, func(b kv.Bucket) error {
		value = b.Get(key)
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read db: %v", err)
	}

	return value, nil
}

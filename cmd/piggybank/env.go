package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/contracts/bank"
	"go.dedis.ch/piggybank/core/chain"
	"go.dedis.ch/piggybank/core/execution/native"
	"go.dedis.ch/piggybank/core/store/kv"
	"go.dedis.ch/piggybank/crypto"
	"go.dedis.ch/piggybank/crypto/ed25519"
	"go.dedis.ch/piggybank/crypto/loader"
	tracer "go.dedis.ch/piggybank/internal/tracing"
	"golang.org/x/xerrors"
)

const tracingService = "piggybank"

// env is the local chain opened from a configuration folder.
type env struct {
	dir   string
	cfg   config
	db    kv.DB
	exec  *native.Service
	chain *chain.Chain
}

// openEnv opens the database of the configuration folder and the chain on top
// of it. The caller must close the environment.
func openEnv(flags cli.Flags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	dir := flags.Path("config")

	path := filepath.Join(dir, fmt.Sprintf("%s.db", cfg.Driver))

	db, err := openDB(cfg.Driver, path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %v", err)
	}

	exec := native.NewExecution()
	bank.RegisterContract(exec, bank.NewContract())

	opts := []chain.Option{
		chain.WithEnergyPrice(cfg.EnergyPrice),
		chain.WithEnergyLimit(cfg.EnergyLimit),
	}

	if cfg.Tracing {
		opts = append(opts, chain.WithTracing(tracingService))
	}

	ch, err := chain.NewChain(db, exec, opts...)
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to create chain: %v", err)
	}

	e := &env{
		dir:   dir,
		cfg:   cfg,
		db:    db,
		exec:  exec,
		chain: ch,
	}

	return e, nil
}

// Close closes the database and flushes the tracers.
func (e *env) Close() error {
	if e.cfg.Tracing {
		tracer.CloseAll()
	}

	err := e.db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close database: %v", err)
	}

	return nil
}

// openDB creates the folder of the database if necessary and opens it with the
// driver.
func openDB(driver, path string) (kv.DB, error) {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, xerrors.Errorf("failed to create folder: %v", err)
	}

	return kv.Open(kv.Driver(driver), path)
}

// keyLoader returns the loader of the key file of the account name.
func (e *env) keyLoader(name string) (loader.Loader, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, xerrors.Errorf("invalid account name '%s'", name)
	}

	return loader.NewFileLoader(filepath.Join(e.dir, "keys", name+".key")), nil
}

// signer loads the signer of an existing account name.
func (e *env) signer(name string) (crypto.Signer, error) {
	l, err := e.keyLoader(name)
	if err != nil {
		return nil, err
	}

	if !l.Exists() {
		return nil, xerrors.Errorf("unknown account '%s'", name)
	}

	data, err := l.Load()
	if err != nil {
		return nil, xerrors.Errorf("failed to load key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode key: %v", err)
	}

	return signer, nil
}

// signerGenerator creates new Ed25519 private keys.
//
// - implements loader.Generator
type signerGenerator struct{}

// Generate implements loader.Generator.
func (signerGenerator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalBinary()
}

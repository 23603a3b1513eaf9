package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/piggybank"
	"go.dedis.ch/piggybank/cli"
	"go.dedis.ch/piggybank/contracts/bank"
	"go.dedis.ch/piggybank/core/access"
	"go.dedis.ch/piggybank/core/chain"
	"go.dedis.ch/piggybank/core/execution/native"
	"golang.org/x/xerrors"
)

const (
	metricsPath   = "/metrics"
	contractsPath = "/contracts/"
)

const shutdownTimeout = 10 * time.Second

type key int

const requestIDKey key = 0

// contractView is the JSON representation of a piggy bank instance.
type contractView struct {
	Index       uint64                `json:"index"`
	Contract    string                `json:"contract"`
	Owner       access.AccountAddress `json:"owner"`
	Balance     uint64                `json:"balance"`
	State       string                `json:"state"`
	Entrypoints []string              `json:"entrypoints"`
}

// viewOf returns the representation of the instance.
func viewOf(exec *native.Service, inst chain.Instance) (contractView, error) {
	state, err := bank.ParseState(inst.State)
	if err != nil {
		return contractView{}, xerrors.Errorf("invalid state: %v", err)
	}

	entrypoints, err := exec.Entrypoints(inst.Contract)
	if err != nil {
		return contractView{}, xerrors.Errorf("failed to read entrypoints: %v", err)
	}

	view := contractView{
		Index:       inst.Address.Index,
		Contract:    inst.Contract,
		Owner:       inst.Owner,
		Balance:     inst.Balance,
		State:       state.String(),
		Entrypoints: entrypoints,
	}

	return view, nil
}

// server exposes the metrics and the instances of the chain over HTTP.
type server struct {
	chain  *chain.Chain
	exec   *native.Service
	http   *http.Server
	logger zerolog.Logger
}

func newServer(ch *chain.Chain, exec *native.Service) (*server, error) {
	registry := prometheus.NewRegistry()

	for _, c := range piggybank.PromCollectors {
		err := registry.Register(c)
		if err != nil {
			return nil, xerrors.Errorf("failed to register collector: %v", err)
		}
	}

	srv := &server{
		chain:  ch,
		exec:   exec,
		logger: piggybank.Logger.With().Str("role", "http server").Logger(),
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(contractsPath, srv.contractHandler)

	srv.http = &http.Server{
		Handler:           tracing(logging(srv.logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// Serve accepts the connections of the listener until the server is shut
// down.
func (s *server) Serve(ln net.Listener) error {
	s.logger.Info().Stringer("addr", ln.Addr()).Msg("server is ready to handle requests")

	err := s.http.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown stops the server gracefully.
func (s *server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("server is shutting down")

	s.http.SetKeepAlivesEnabled(false)

	return s.http.Shutdown(ctx)
}

func (s *server) contractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, contractsPath)
	if raw == "" {
		s.listContracts(w)
		return
	}

	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid index '%s'", raw), http.StatusBadRequest)
		return
	}

	inst, err := s.chain.Instance(access.ContractAddress{Index: index})
	if xerrors.Is(err, chain.ErrUnknownInstance) {
		http.Error(w, fmt.Sprintf("contract %d not found", index), http.StatusNotFound)
		return
	}

	if err != nil {
		s.logger.Err(err).Uint64("index", index).Msg("failed to read instance")
		http.Error(w, "failed to read instance", http.StatusInternalServerError)
		return
	}

	view, err := viewOf(s.exec, inst)
	if err != nil {
		s.logger.Err(err).Uint64("index", index).Msg("failed to render instance")
		http.Error(w, "failed to render instance", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, view)
}

// listContracts writes the views of every instance in the order of their
// index.
func (s *server) listContracts(w http.ResponseWriter) {
	instances, err := s.chain.Instances()
	if err != nil {
		s.logger.Err(err).Msg("failed to list instances")
		http.Error(w, "failed to list instances", http.StatusInternalServerError)
		return
	}

	views := make([]contractView, len(instances))

	for i, inst := range instances {
		views[i], err = viewOf(s.exec, inst)
		if err != nil {
			s.logger.Err(err).Uint64("index", inst.Address.Index).Msg("failed to render instance")
			http.Error(w, "failed to render instance", http.StatusInternalServerError)
			return
		}
	}

	s.writeJSON(w, views)
}

func (s *server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.logger.Err(err).Msg("failed to write response")
	}
}

func (a action) serveAction(flags cli.Flags) error {
	e, err := openEnv(flags)
	if err != nil {
		return err
	}

	defer e.Close()

	addr := flags.String("addr")
	if addr == "" {
		addr = e.cfg.MetricsAddr
	}

	srv, err := newServer(e.chain, e.exec)
	if err != nil {
		return xerrors.Errorf("failed to create server: %v", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return xerrors.Errorf("failed to listen: %v", err)
	}

	fmt.Fprintf(a.printer, "serving on %s\n", ln.Addr())

	errs := make(chan error, 1)

	go func() {
		errs <- srv.Serve(ln)
	}()

	select {
	case <-a.signals:
	case err := <-errs:
		return xerrors.Errorf("server failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(ctx)
	if err != nil {
		return xerrors.Errorf("failed to shutdown: %v", err)
	}

	err = <-errs
	if err != nil {
		return xerrors.Errorf("server failed: %v", err)
	}

	fmt.Fprintln(a.printer, "server stopped")

	return nil
}

// logging logs every request handled by the server.
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				requestID, ok := r.Context().Value(requestIDKey).(string)
				if !ok {
					requestID = "unknown"
				}

				logger.Info().Str("requestID", requestID).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Str("remoteAddr", r.RemoteAddr).
					Str("agent", r.UserAgent()).Msg("")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// tracing attaches a request identifier to the request and the response.
func tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = xid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

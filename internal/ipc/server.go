package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"sync"
	"time"

	"captioner/internal/logging"
	"captioner/internal/services"
)

// Evaluator executes a script inside the host and returns its reply.
type Evaluator interface {
	Eval(ctx context.Context, script string) (string, error)
}

// Server answers Eval calls from Dial clients over a Unix socket, one
// JSON-RPC codec per connection.
type Server struct {
	path     string
	logger   *slog.Logger
	listener net.Listener
	rpc      *rpc.Server
	stop     context.CancelFunc
	done     context.Context
	conns    sync.WaitGroup

	mu   sync.Mutex
	open map[net.Conn]struct{}
}

// NewServer replaces any stale socket at path and starts listening. Calls
// are evaluated under ctx, so cancelling it aborts in-flight evaluations.
func NewServer(ctx context.Context, path string, eval Evaluator, logger *slog.Logger) (*Server, error) {
	if eval == nil {
		return nil, errors.New("ipc server requires evaluator")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	done, stop := context.WithCancel(ctx)
	s := &Server{
		path:     path,
		logger:   logging.NewComponentLogger(logger, "ipc"),
		listener: listener,
		rpc:      rpc.NewServer(),
		stop:     stop,
		done:     done,
		open:     make(map[net.Conn]struct{}),
	}
	if err := s.rpc.RegisterName(ServiceName, &endpoint{eval: eval, server: s}); err != nil {
		stop()
		_ = listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}
	return s, nil
}

// Serve accepts connections in the background until Close.
func (s *Server) Serve() {
	s.logger.Info("host socket listening", logging.String("socket", s.path))
	s.conns.Go(s.acceptLoop)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.done.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a host command could not connect"),
				logging.String(logging.FieldErrorHint, "check socket permissions and restart the host server"))
			continue
		}
		s.track(conn, true)
		s.conns.Go(func() {
			defer s.track(conn, false)
			s.rpc.ServeCodec(jsonrpc.NewServerCodec(conn))
		})
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.open[conn] = struct{}{}
	} else {
		delete(s.open, conn)
	}
}

// Close stops accepting, closes open connections and removes the socket file.
func (s *Server) Close() {
	s.stop()
	_ = s.listener.Close()
	s.mu.Lock()
	for conn := range s.open {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.conns.Wait()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file before the next start"))
	}
}

// endpoint is the receiver registered with net/rpc; its exported method set
// is the wire API.
type endpoint struct {
	eval   Evaluator
	server *Server
}

func (e *endpoint) Eval(req EvalRequest, resp *EvalResponse) error {
	ctx := services.WithRequestID(e.server.done, req.RequestID)
	log := logging.WithContext(ctx, e.server.logger)
	start := time.Now()
	reply, err := e.eval.Eval(ctx, req.Script)
	if err != nil {
		log.Debug("eval failed", logging.Error(err))
		return err
	}
	log.Debug("eval served",
		logging.Int("script_bytes", len(req.Script)),
		logging.Duration("elapsed", time.Since(start)))
	resp.Reply = reply
	return nil
}

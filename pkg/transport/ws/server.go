// Package ws serves the debug protocol over websocket, one frame per
// message. Only one host is served at a time.
package ws

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/dbglink/pkg/dbg/errlog"
)

// Error codes.
const (
	ErrReceive  errlog.Code = 6202
	ErrTransmit errlog.Code = 6203
)

// DefaultPath is where the device is served.
const DefaultPath = "/dbg"

// Device is the protocol side attached to the server.
type Device interface {
	HandleRX(frame []byte)
	HandleTX()

	errlog.Reporter
}

// Server implements txq.Transport for the connected host.
type Server struct {
	Addr string
	Path string

	device Device
	txCh   chan []byte
	conn   *Conn
	lock   sync.Mutex
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{
		Addr: addr,
		Path: DefaultPath,
		txCh: make(chan []byte, 1),
	}
}

// Attach sets the device. It must be called before Run.
func (s *Server) Attach(dev Device) *Server {
	s.device = dev
	return s
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "ws"
}

// Connected returns true if a host is connected.
func (s *Server) Connected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conn != nil
}

// Send implements txq.Transport.
func (s *Server) Send(msg []byte) {
	select {
	case s.txCh <- msg:
	default:
		s.device.Record(ErrTransmit)
	}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serveConn)
}

// Run listens on Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler())
	srv := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	glog.Infof("serving websocket on %s%s", ln.Addr(), s.Path)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.txLoop(subCtx)

	select {
	case <-ctx.Done():
		srv.Close()
		// hijacked connections are not closed by srv
		s.lock.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.lock.Unlock()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) serveConn(wsConn *websocket.Conn) {
	conn := NewConn(wsConn)
	s.lock.Lock()
	if s.conn != nil {
		s.lock.Unlock()
		glog.Warningf("reject %s: already connected", wsConn.Request().RemoteAddr)
		wsConn.Close()
		return
	}
	s.conn = conn
	s.lock.Unlock()
	glog.Infof("host connected: %s", wsConn.Request().RemoteAddr)

	defer func() {
		s.lock.Lock()
		s.conn = nil
		s.lock.Unlock()
		conn.Close()
		glog.Infof("host disconnected: %s", wsConn.Request().RemoteAddr)
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if err != io.EOF {
				s.device.Record(ErrReceive)
			}
			return
		}
		glog.V(4).Infof("RX % x", frame)
		s.device.HandleRX(frame)
	}
}

func (s *Server) txLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.txCh:
			s.lock.Lock()
			conn := s.conn
			s.lock.Unlock()
			if conn != nil {
				if err := conn.WriteFrame(msg); err != nil {
					glog.Warningf("websocket write error: %v", err)
					s.device.Record(ErrTransmit)
				} else {
					glog.V(4).Infof("TX % x", msg)
				}
			}
			s.device.HandleTX()
		}
	}
}

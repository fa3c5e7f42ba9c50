// Package websocket carries SLIP links over websocket connections.
package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/mos.go/pkg/comm"
)

// Server serves a device link to one websocket connection at a time.
type Server struct {
	Handler comm.StreamHandler
	OnReply func()

	lock sync.Mutex
}

// NewServer creates a Server.
func NewServer(h comm.StreamHandler, onReply func()) *Server {
	return &Server{Handler: h, OnReply: onReply}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.serve).ServeHTTP(w, r)
}

func (s *Server) serve(conn *websocket.Conn) {
	s.lock.Lock()
	defer s.lock.Unlock()
	conn.PayloadType = websocket.BinaryFrame
	glog.Infof("link from %s", conn.Request().RemoteAddr)
	link := comm.NewLink(conn, s.Handler)
	link.OnReply = s.OnReply
	err := link.Run(conn.Request().Context())
	glog.Infof("link from %s closed: %v", conn.Request().RemoteAddr, err)
}

// Dial connects to a device link at url, e.g. ws://host:port/link.
func Dial(url string) (*websocket.Conn, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// DialClient dials url and runs a SlipClient on it until ctx is done.
// The returned func waits for the client to stop and closes the
// connection.
func DialClient(ctx context.Context, url string) (*comm.SlipClient, func() error, error) {
	conn, err := Dial(url)
	if err != nil {
		return nil, nil, err
	}
	client := comm.NewSlipClient(conn)
	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()
	return client, func() error {
		conn.Close()
		return <-errCh
	}, nil
}

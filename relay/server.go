// Package relay moves the WebView boundary onto a socket. A Server hosts a
// native adapter for a simulated or real device; web-side callers reach it
// over WebSocket (as an Android-style string transport) or over HTTP /rpc
// (as a custom bridge).
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mobile-bridge/internal/platform/timeouts"
	"mobile-bridge/native"
	"mobile-bridge/protocol"
)

// Version is reported by /ping.
const Version = "0.1.0"

// RPCRequest is the body of a /rpc call.
type RPCRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// RPCResponse is the reply to a /rpc call.
type RPCResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *protocol.Error `json:"error,omitempty"`
}

// PingResponse is the reply to /ping.
type PingResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Platform protocol.Platform `json:"platform"`
}

// Config configures a Server.
type Config struct {
	Addr       string
	Platform   protocol.Platform
	RPCTimeout time.Duration
}

// Server exposes one device to WebView clients.
type Server struct {
	cfg      Config
	device   native.Capabilities
	looper   *native.Looper
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	rpc      *native.Dispatcher
	tracer   trace.Tracer

	listener net.Listener
	server   *http.Server
	wg       sync.WaitGroup

	customMu sync.Mutex
	custom   map[string]native.CustomFunc

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

// NewServer creates a server for device. UI work and deliveries run on looper.
func NewServer(cfg Config, device native.Capabilities, looper *native.Looper) *Server {
	if cfg.Platform == "" {
		cfg.Platform = protocol.PlatformAndroid
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = timeouts.BridgeCall
	}
	s := &Server{
		cfg:    cfg,
		device: device,
		looper: looper,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		mux:    http.NewServeMux(),
		rpc:    native.NewDispatcher(native.NewTable(cfg.Platform, device, looper), "RPC"),
		tracer: otel.Tracer("mobile-bridge/relay"),
		custom: make(map[string]native.CustomFunc),
		conns:  make(map[*websocket.Conn]struct{}),
	}
	s.mux.HandleFunc("/ping", s.handlePing)
	s.mux.HandleFunc("/rpc", s.handleRPC)
	s.mux.HandleFunc("/ws", s.HandleWebSocket)
	return s
}

// Mux returns the HTTP mux so additional handlers can be registered.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// Custom registers a named custom method on every adapter the server creates.
func (s *Server) Custom(name string, fn native.CustomFunc) {
	s.customMu.Lock()
	s.custom[name] = fn
	s.customMu.Unlock()
	s.rpc.Table().Custom(name, fn)
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Printf("Device host (%s) listening on %s", s.cfg.Platform, listener.Addr())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Device host server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server and closes open WebView connections.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			log.Printf("Device host shutdown error: %v", err)
		}
	}
	s.connMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMu.Unlock()
	s.wg.Wait()
}

// HandleWebSocket attaches one WebView client. Each connection gets its own adapter.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()

	view := &socketView{conn: conn}
	handle, closeAdapter := s.newAdapter(view)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer closeAdapter()
		s.readLoop(conn, handle)
	}()
}

func (s *Server) newAdapter(view *socketView) (func([]byte), func()) {
	s.customMu.Lock()
	defer s.customMu.Unlock()

	if s.cfg.Platform == protocol.PlatformIOS {
		adapter := native.NewIOSAdapter(s.device, view, s.looper)
		for name, fn := range s.custom {
			adapter.Table().Custom(name, fn)
		}
		return func(frame []byte) {
			var body map[string]any
			if err := json.Unmarshal(frame, &body); err != nil {
				log.Printf("Invalid message: %v", err)
				return
			}
			_ = adapter.PostMessage(body)
		}, adapter.Close
	}

	adapter := native.NewAndroidAdapter(s.device, view, s.looper)
	for name, fn := range s.custom {
		adapter.Table().Custom(name, fn)
	}
	return func(frame []byte) {
		inline := adapter.CallNative(string(frame))
		if inline == "" {
			return
		}
		// A socket has no return value; inline answers go back as deliveries.
		var resp protocol.Response
		if err := json.Unmarshal([]byte(inline), &resp); err != nil {
			log.Printf("Invalid inline response: %v", err)
			return
		}
		script, err := protocol.DeliveryScript(resp)
		if err != nil {
			log.Printf("Invalid inline response: %v", err)
			return
		}
		if err := view.EvaluateJavascript(script); err != nil {
			log.Printf("Failed to send response %s: %v", resp.ID, err)
		}
	}, adapter.Close
}

func (s *Server) readLoop(conn *websocket.Conn, handle func([]byte)) {
	defer s.clearConn(conn)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		handle(payload)
	}
}

func (s *Server) clearConn(conn *websocket.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	_ = conn.Close()
}

// handlePing responds to health check requests.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, PingResponse{
		Status:   "ok",
		Version:  Version,
		Platform: s.cfg.Platform,
	})
}

// handleRPC runs one custom-bridge call. The host assigns the correlation id
// since custom callers send no envelope.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rpcReq RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&rpcReq); err != nil || rpcReq.Method == "" {
		writeJSON(w, http.StatusBadRequest, RPCResponse{
			Error: protocol.NewError(protocol.CodeInvalidParams, "invalid request body"),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RPCTimeout)
	defer cancel()

	id := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "relay.rpc",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bridge.method", rpcReq.Method),
			attribute.String("bridge.request_id", id),
		),
	)
	defer span.End()

	req := protocol.NewRequest(id, protocol.Method(rpcReq.Method), rpcReq.Params, time.Now())
	later := make(chan protocol.Response, 1)
	resp, done := s.rpc.Dispatch(ctx, req, native.SinkFunc(func(resp protocol.Response) {
		later <- resp
	}))
	if !done {
		select {
		case resp = <-later:
		case <-ctx.Done():
			resp = protocol.Failure(id, protocol.CodeException, "Native operation timed out", time.Now())
		}
	}

	if resp.Success {
		writeJSON(w, http.StatusOK, RPCResponse{Data: resp.Data})
		return
	}
	writeJSON(w, http.StatusOK, RPCResponse{Error: resp.Error})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// socketView is the WebView of one connected client: evaluating script means
// sending it as a text frame.
type socketView struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (v *socketView) EvaluateJavascript(script string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn.WriteMessage(websocket.TextMessage, []byte(script))
}

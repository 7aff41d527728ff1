package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

func listenTCP(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// httpClient is shared across every outbound request for connection reuse,
// matching the pooled-client convention this codebase uses for all
// inter-host traffic.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// wireMessage is the JSON envelope for both point-to-point and broadcast
// deliveries. Payload is base64-encoded by encoding/json's []byte handling.
type wireMessage struct {
	From      uint32 `json:"from"`
	Src       uint32 `json:"src"` // original broadcast source; equals From for a direct Send
	Broadcast bool   `json:"broadcast"`
	Handler   string `json:"handler"`
	Payload   []byte `json:"payload"`
}

// HTTPTransport is the production Transport: each host runs an HTTP
// server and addresses its peers by base URL. It is grounded on torua's
// cluster.PostJSON/GetJSON convention for inter-node calls, with the
// pooled http.Client and context-based cancellation carried over
// verbatim.
type HTTPTransport struct {
	hostID   uint32
	numHosts uint32
	peers    []string // base URL per host ID, e.g. "http://10.0.0.2:7000"
	registry *Registry
	server   *http.Server
	log      zerolog.Logger

	barrierMu      sync.Mutex
	barrierCond    *sync.Cond
	barrierArrived int32
	barrierGen     uint64
}

// NewHTTPTransport starts listening on listenAddr and returns a transport
// addressing the given peer base URLs (indexed by host ID; peers[hostID]
// is this host's own address and is never dialed).
func NewHTTPTransport(hostID uint32, listenAddr string, peers []string, log zerolog.Logger) (*HTTPTransport, error) {
	t := &HTTPTransport{
		hostID:   hostID,
		numHosts: uint32(len(peers)),
		peers:    peers,
		registry: NewRegistry(),
		log:      log,
	}
	t.barrierCond = sync.NewCond(&t.barrierMu)

	mux := http.NewServeMux()
	mux.HandleFunc("/transport/deliver", t.handleDeliver)
	mux.HandleFunc("/transport/barrier/arrive", t.handleBarrierArrive)
	mux.HandleFunc("/transport/barrier/release", t.handleBarrierRelease)

	t.server = &http.Server{Addr: listenAddr, Handler: mux}
	ln, err := listenTCP(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on %s: %w", listenAddr, err)
	}
	go func() {
		if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.log.Error().Err(err).Msg("transport http server exited")
		}
	}()
	return t, nil
}

func (t *HTTPTransport) HostID() uint32   { return t.hostID }
func (t *HTTPTransport) NumHosts() uint32 { return t.numHosts }

func (t *HTTPTransport) RegisterHandler(name string, fn HandlerFunc) {
	t.registry.Register(name, fn)
}

func (t *HTTPTransport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

// Send delivers payload to dest's handler over HTTP, or dispatches locally
// without a network round-trip when dest is this host.
func (t *HTTPTransport) Send(ctx context.Context, dest uint32, handler string, payload []byte) error {
	if dest >= t.numHosts {
		return fmt.Errorf("transport: send to unknown host %d", dest)
	}
	if dest == t.hostID {
		return t.registry.Dispatch(t.hostID, handler, payload)
	}
	return t.postMessage(ctx, dest, wireMessage{From: t.hostID, Src: t.hostID, Handler: handler, Payload: payload})
}

// Broadcast delivers payload to every host's handler exactly once,
// forwarding down the k=2 tree rooted at this host per spec.md §4.7.
func (t *HTTPTransport) Broadcast(ctx context.Context, handler string, payload []byte, includeSelf bool) error {
	if includeSelf {
		if err := t.registry.Dispatch(t.hostID, handler, payload); err != nil {
			return err
		}
	}
	return t.forwardBroadcast(ctx, t.hostID, wireMessage{From: t.hostID, Src: t.hostID, Broadcast: true, Handler: handler, Payload: payload})
}

// forwardBroadcast sends to this host's immediate children in the tree
// rooted at msg.Src; each child's own server handler does the next hop
// when it receives the message, mirroring Network.cpp's bcastLandingPad.
func (t *HTTPTransport) forwardBroadcast(ctx context.Context, relay uint32, msg wireMessage) error {
	for _, child := range broadcastChildren(relay, msg.Src, t.numHosts) {
		if err := t.postMessage(ctx, child, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *HTTPTransport) postMessage(ctx context.Context, dest uint32, msg wireMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: marshal message: %w", err)
	}
	url := t.peers[dest] + "/transport/deliver"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request to %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: post to %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("transport: %s returned status %d", url, resp.StatusCode)
	}
	return nil
}

func (t *HTTPTransport) handleDeliver(w http.ResponseWriter, r *http.Request) {
	var msg wireMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	if msg.Broadcast {
		// a broadcast relay hop: forward on to our children before
		// (and regardless of) delivering locally
		if err := t.forwardBroadcast(r.Context(), t.hostID, msg); err != nil {
			t.log.Error().Err(err).Msg("broadcast forward failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}

	if err := t.registry.Dispatch(msg.From, msg.Handler, msg.Payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Barrier blocks until every host has called Barrier for the current
// round. Host 0 acts as the rendezvous point: it counts arrivals and
// broadcasts release once every host (including itself) has checked in.
// Per spec.md §5, the driver only ever calls Barrier at points where all
// hosts are already synchronized on round number, so a simple generation
// counter keyed by call order is race-free.
func (t *HTTPTransport) Barrier(ctx context.Context) error {
	if t.hostID == 0 {
		return t.barrierAsCoordinator(ctx)
	}
	return t.barrierAsParticipant(ctx)
}

func (t *HTTPTransport) barrierAsCoordinator(ctx context.Context) error {
	t.barrierMu.Lock()
	myGen := t.barrierGen
	t.barrierArrived++
	if int(t.barrierArrived) == int(t.numHosts) {
		t.barrierArrived = 0
		t.barrierGen++
		t.barrierCond.Broadcast()
		t.barrierMu.Unlock()
		return t.releasePeers(ctx, myGen)
	}
	for t.barrierGen == myGen {
		t.barrierCond.Wait()
	}
	t.barrierMu.Unlock()
	return nil
}

func (t *HTTPTransport) releasePeers(ctx context.Context, gen uint64) error {
	for dest := uint32(1); dest < t.numHosts; dest++ {
		body, _ := json.Marshal(struct {
			Gen uint64 `json:"gen"`
		}{Gen: gen})
		url := t.peers[dest] + "/transport/barrier/release"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("transport: release barrier to %s: %w", url, err)
		}
		resp.Body.Close()
	}
	return nil
}

func (t *HTTPTransport) barrierAsParticipant(ctx context.Context) error {
	t.barrierMu.Lock()
	myGen := t.barrierGen
	t.barrierMu.Unlock()

	body, _ := json.Marshal(struct {
		Host uint32 `json:"host"`
	}{Host: t.hostID})
	url := t.peers[0] + "/transport/barrier/arrive"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transport: arrive at barrier: %w", err)
	}
	resp.Body.Close()

	t.barrierMu.Lock()
	for t.barrierGen == myGen {
		t.barrierCond.Wait()
	}
	t.barrierMu.Unlock()
	return nil
}

func (t *HTTPTransport) handleBarrierArrive(w http.ResponseWriter, r *http.Request) {
	if t.hostID != 0 {
		http.Error(w, "not the barrier coordinator", http.StatusBadRequest)
		return
	}
	t.barrierMu.Lock()
	t.barrierArrived++
	ready := int(t.barrierArrived) == int(t.numHosts)
	var gen uint64
	if ready {
		t.barrierArrived = 0
		t.barrierGen++
		gen = t.barrierGen
		t.barrierCond.Broadcast()
	}
	t.barrierMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
	if ready {
		go func() {
			if err := t.releasePeers(context.Background(), gen-1); err != nil {
				t.log.Error().Err(err).Msg("barrier release failed")
			}
		}()
	}
}

func (t *HTTPTransport) handleBarrierRelease(w http.ResponseWriter, r *http.Request) {
	t.barrierMu.Lock()
	t.barrierGen++
	t.barrierCond.Broadcast()
	t.barrierMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

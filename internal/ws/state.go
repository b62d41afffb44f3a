package ws

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
	diag "github.com/coreman2200/funtimes-spiled/internal/diagnostics"
	"github.com/coreman2200/funtimes-spiled/internal/led"
)

const writeTimeout = 200 * time.Millisecond

// State serves light control, frame monitoring and diagnostics over
// websockets for a set of devices sharing one channel store.
type State struct {
	mu          sync.RWMutex
	store       *channels.Store
	devices     []*led.Device
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	frameIDs    map[string]uint64

	// gorilla allows one concurrent writer per connection.
	writeMu sync.Mutex
}

func NewState(store *channels.Store) *State {
	return &State{
		store:       store,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		frameIDs:    map[string]uint64{},
	}
}

func (s *State) AddDevice(d *led.Device) {
	s.mu.Lock()
	s.devices = append(s.devices, d)
	s.mu.Unlock()
}

func (s *State) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.subscribe(w, r, s.diagClients)
}

// subscribe registers a listen-only client in set until it disconnects.
func (s *State) subscribe(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	set[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ControlMessage sets light values. Sync defaults to true and wakes every
// device so the values go out without waiting for the next frame.
type ControlMessage struct {
	Lights map[string][]float64 `json:"lights"`
	Sync   *bool                `json:"sync,omitempty"`
}

type controlReply struct {
	OK     bool   `json:"ok"`
	Lights int    `json:"lights,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMessage
		reply := controlReply{OK: true}
		if err := json.Unmarshal(data, &msg); err != nil {
			reply = controlReply{Error: err.Error()}
		} else {
			reply.Lights = s.applyControl(msg)
		}
		b, _ := json.Marshal(reply)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

func (s *State) applyControl(msg ControlMessage) int {
	n := 0
	for name, v := range msg.Lights {
		var rgb [3]float64
		copy(rgb[:], v)
		s.store.Set(name, rgb)
		n++
	}
	if n > 0 && (msg.Sync == nil || *msg.Sync) {
		s.mu.RLock()
		for _, d := range s.devices {
			d.Sync()
		}
		s.mu.RUnlock()
	}
	return n
}

type health struct {
	UptimeS float64      `json:"uptime_s"`
	Lights  int          `json:"lights"`
	Devices []led.Status `json:"devices"`
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := health{
		UptimeS: time.Since(s.startTime).Seconds(),
		Lights:  len(s.store.Lights()),
		Devices: make([]led.Status, 0, len(s.devices)),
	}
	for _, d := range s.devices {
		resp.Devices = append(resp.Devices, d.Status())
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Frame is what monitor clients receive for every transferred frame.
type Frame struct {
	T       int64  `json:"t"`
	Device  string `json:"device"`
	FrameID uint64 `json:"frame_id"`
	Data    string `json:"data"`
}

// BroadcastFrame sends frame to monitor clients. It fits led.WithFrameHook.
func (s *State) BroadcastFrame(device string, frame []byte) {
	s.mu.Lock()
	s.frameIDs[device]++
	id := s.frameIDs[device]
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	b, _ := json.Marshal(Frame{T: time.Now().UnixNano(), Device: device, FrameID: id, Data: hex.EncodeToString(frame)})
	s.broadcast(s.clients, b)
}

// PushDiag sends d to diagnostic clients.
func (s *State) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.broadcast(s.diagClients, b)
}

// OnDeviceError fits led.RunOptions.OnError.
func (s *State) OnDeviceError(d *led.Device, stage led.Stage, err error) {
	s.PushDiag(diag.FromDeviceError(d.Status(), stage, err))
}

func (s *State) broadcast(set map[*websocket.Conn]bool, b []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write websocket message")
		}
	}
}

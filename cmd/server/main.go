package main

import (
	"flag"
	"fmt"
	"html/template"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cooledkll/cooledkll/sketch"
	"github.com/cooledkll/cooledkll/stream"
)

var indexTemplate *template.Template

var upgrader websocket.Upgrader

// Client message types, mirroring the teacher's ClientMessage shape:
// a discriminated command plus an optional payload for params_update.
type ClientMessage struct {
	Type   string         `json:"type"`
	Params *sketch.Params `json:"params,omitempty"`
}

// DashboardStats is the subset of sketch state pushed to the browser
// on every tick: enough to plot memory growth, KLL height, and Hot
// Filter churn without shipping the full bucket/level contents.
type DashboardStats struct {
	MemoryBytes   uint64  `json:"memoryBytes"`
	KLLHeight     int     `json:"kllHeight"`
	TotalWeight   uint64  `json:"totalWeight"`
	HotVoteTotal  uint64  `json:"hotVoteTotal"`
	ValuesIngested uint64 `json:"valuesIngested"`
	MedianEstimate uint64 `json:"medianEstimate"`
}

// Server message types, mirroring the teacher's ServerMessage shape.
type ServerMessage struct {
	Type    string           `json:"type"`
	Running *bool            `json:"running,omitempty"`
	Params  *sketch.Params   `json:"params,omitempty"`
	Stats   *DashboardStats  `json:"stats,omitempty"`
}

// ingestState owns a sketch and a synthetic value source, and paces
// ingestion the way the teacher's simState paces the LSM simulator:
// a mutex-guarded struct with start/pause/reset/step, driven by the UI
// ticker goroutine (step, stats) and by the WebSocket command handler
// (start, pause, reset, params_update).
type ingestState struct {
	sk       *sketch.CooledSketch
	source   stream.ValueSource
	params   sketch.Params
	ingested uint64
	running  bool
	paused   bool
	mu       sync.Mutex
	stopCh   chan struct{}
}

func newIngestState(params sketch.Params) (*ingestState, error) {
	sk, err := sketch.NewCooledSketch(params)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(1))
	source := stream.NewValueSource(stream.DistZipfian, rng, 1<<20, 1.3, 1)

	return &ingestState{
		sk:     sk,
		source: source,
		params: params,
		stopCh: make(chan struct{}),
	}, nil
}

func (s *ingestState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.paused = false
}

func (s *ingestState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *ingestState) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, err := sketch.NewCooledSketch(s.params)
	if err != nil {
		return err
	}
	s.sk = sk
	s.ingested = 0
	s.running = false
	s.paused = false
	return nil
}

func (s *ingestState) updateParams(params sketch.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, err := sketch.NewCooledSketch(params)
	if err != nil {
		return err
	}
	s.params = params
	s.sk = sk
	s.ingested = 0
	return nil
}

func (s *ingestState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.paused
}

func (s *ingestState) getParams() sketch.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// step ingests n synthetic values, the equivalent of simState.step
// advancing virtual time.
func (s *ingestState) step(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.paused {
		return
	}
	for i := 0; i < n; i++ {
		s.sk.Insert(s.source.Sample())
	}
	s.ingested += uint64(n)
}

func (s *ingestState) stats() *DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	median, _ := s.sk.Quantile(0.5)
	return &DashboardStats{
		MemoryBytes:    s.sk.Memory(),
		KLLHeight:      s.sk.Height(),
		TotalWeight:    s.sk.Rank(^uint64(0)),
		HotVoteTotal:   s.sk.HotFilterVotes(),
		ValuesIngested: s.ingested,
		MedianEstimate: median,
	}
}

func (s *ingestState) stop() {
	close(s.stopCh)
}

// uiUpdateLoop periodically ingests a batch of synthetic values and
// pushes fresh stats to the client, the same pacing shape as the
// teacher's uiUpdateLoop.
func uiUpdateLoop(conn *safeConn, state *ingestState) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-state.stopCh:
			log.Println("UI update loop stopping")
			return

		case <-ticker.C:
			if state.isRunning() {
				state.step(2000)
				updatePrometheusMetrics(state)

				statsMsg := ServerMessage{Type: "stats", Stats: state.stats()}
				if err := conn.WriteJSON(statsMsg); err != nil {
					log.Printf("Error sending stats: %v", err)
					return
				}
			}
		}
	}
}

// safeConn wraps a WebSocket connection with a mutex to prevent
// concurrent writes from the ingest ticker and the command handler.
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	safeConn := &safeConn{Conn: conn}
	log.Println("Client connected")

	params := sketch.DefaultParams()
	state, err := newIngestState(params)
	if err != nil {
		log.Printf("Error creating sketch: %v", err)
		return
	}

	running := false
	if err := safeConn.WriteJSON(ServerMessage{Type: "status", Running: &running, Params: &params}); err != nil {
		log.Printf("Error sending status: %v", err)
		return
	}

	go uiUpdateLoop(safeConn, state)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			break
		}

		log.Printf("Received command: %s", msg.Type)

		switch msg.Type {
		case "start":
			state.start()
			sendStatus(safeConn, state, true)

		case "pause":
			state.pause()
			sendStatus(safeConn, state, false)

		case "reset":
			if err := state.reset(); err != nil {
				log.Printf("Error resetting sketch: %v", err)
				continue
			}
			sendStatus(safeConn, state, false)

		case "params_update":
			if msg.Params != nil {
				if err := state.updateParams(*msg.Params); err != nil {
					log.Printf("Error updating params: %v", err)
					continue
				}
				sendStatus(safeConn, state, state.isRunning())
			}
		}
	}

	state.stop()
	log.Println("Client disconnected")
}

func sendStatus(conn *safeConn, state *ingestState, running bool) {
	params := state.getParams()
	conn.WriteJSON(ServerMessage{Type: "status", Running: &running, Params: &params})
}

func serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		log.Printf("Error executing template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("Shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Server shutting down...")

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	}()
}

func main() {
	devMode := flag.Bool("dev", false, "allow WebSocket connections from any origin (local development only)")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return *devMode
		},
	}

	templatePath := filepath.Join("templates", "index.html")
	var err error
	indexTemplate, err = template.ParseFiles(templatePath)
	if err != nil {
		log.Fatalf("Error loading template: %v", err)
	}
	log.Printf("Loaded template: %s", templatePath)

	initPrometheusMetrics()

	http.HandleFunc("/", serveHome)
	http.HandleFunc("/ws", handleWebSocket)
	http.HandleFunc("/quitquitquit", quitHandler)
	http.Handle("/metrics", metricsHandler)

	log.Printf("Server starting on http://localhost%s", *addr)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

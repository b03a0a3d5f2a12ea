// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/relabs-tech/walking_detector/internal/config"
	"github.com/relabs-tech/walking_detector/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsMessage is what the browser receives on /ws.
type wsMessage struct {
	Type string          `json:"type"` // "state" or "snapshot"
	Data json.RawMessage `json:"data"`
}

// hub tracks the open web socket connections.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	// a connection supports one concurrent writer
	writeMu sync.Mutex
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]bool)}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// broadcastText drops clients that cannot keep up.
func (h *hub) broadcastText(b []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

// webServer keeps the latest detector messages and serves them over HTTP.
type webServer struct {
	staticDir string
	hub       *hub

	mu       sync.RWMutex
	state    *telemetry.StateMessage
	snapshot *telemetry.SnapshotMessage

	registry     gometrics.Registry
	stateMsgs    gometrics.Counter
	snapshotMsgs gometrics.Counter
	badMsgs      gometrics.Counter
}

func newWebServer(staticDir string) *webServer {
	r := gometrics.NewRegistry()
	s := &webServer{
		staticDir:    staticDir,
		hub:          newHub(),
		registry:     r,
		stateMsgs:    gometrics.NewRegisteredCounter("web.state", r),
		snapshotMsgs: gometrics.NewRegisteredCounter("web.snapshot", r),
		badMsgs:      gometrics.NewRegisteredCounter("web.malformed", r),
	}
	gometrics.NewRegisteredFunctionalGauge("web.clients", r, func() int64 {
		return int64(s.hub.len())
	})
	return s
}

func (s *webServer) handleState(payload []byte) {
	var m telemetry.StateMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		s.badMsgs.Inc(1)
		log.Printf("web: state unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.state = &m
	s.mu.Unlock()
	s.stateMsgs.Inc(1)
	s.push("state", payload)
}

func (s *webServer) handleSnapshot(payload []byte) {
	var m telemetry.SnapshotMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		s.badMsgs.Inc(1)
		log.Printf("web: snapshot unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.snapshot = &m
	s.mu.Unlock()
	s.snapshotMsgs.Inc(1)
	s.push("snapshot", payload)
}

func (s *webServer) push(kind string, payload []byte) {
	b, err := json.Marshal(wsMessage{Type: kind, Data: payload})
	if err != nil {
		log.Printf("web: ws marshal error: %v", err)
		return
	}
	s.hub.broadcastText(b)
}

func (s *webServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		m := s.state
		s.mu.RUnlock()
		writeJSON(w, m, m != nil)
	})

	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		m := s.snapshot
		s.mu.RUnlock()
		writeJSON(w, m, m != nil)
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, registrySnapshot(s.registry), true)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		s.hub.add(conn)
		defer func() {
			s.hub.remove(conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})

	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	return mux
}

func writeJSON(w http.ResponseWriter, v any, ok bool) {
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// RunWeb mirrors the detector's MQTT output to HTTP and web socket clients.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	s := newWebServer("web")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]func([]byte){
		cfg.TopicState:    s.handleState,
		cfg.TopicSnapshot: s.handleSnapshot,
	}
	for topic, handle := range subs {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			handle(msg.Payload())
		})
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("web: subscribed to MQTT topic %s", topic)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: s.handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

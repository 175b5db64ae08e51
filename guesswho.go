// Guess Who
//
// A deck of portraits flickers past on every connected screen until someone
// hits stop, and whoever is left on screen is "it".
//
// Features:
// - One shared session per server: every browser sees the same spin
// - The hub goroutine is the only place the engine is touched, so start,
//   stop and timer ticks never interleave
// - Sequential, random and unrestricted selection modes
// - Blacklisted portraits still flash by but can never be the final pick
// - Space bar toggles the spin, M toggles background music
// - In-browser QR button to share the game, backed by go-qrcode

package main

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/Seednode/guesswho/selector"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var ErrNoRenderTarget = errors.New("no connected screens to render to")

// Messages coming from clients
type ClientMessage struct {
	Type string `json:"type"` // "start", "stop", "toggle"
}

// FrameMessage tells every screen which portrait to show.
type FrameMessage struct {
	Type string `json:"type"` // "frame"
	ID   int    `json:"id"`
	Src  string `json:"src"`
	Alt  string `json:"alt"`
}

// ResultMessage carries the final pick after a stop.
type ResultMessage struct {
	Type string `json:"type"` // "result"
	ID   int    `json:"id"`
	Name string `json:"name"`
	Src  string `json:"src"`
	Alt  string `json:"alt"`
}

// StateMessage is sent on connect and whenever play starts or stops, so
// clients can enable the right controls.
type StateMessage struct {
	Type       string `json:"type"` // "state"
	Running    bool   `json:"running"`
	Mode       string `json:"mode"`
	IntervalMS int64  `json:"interval_ms"`
	Total      int    `json:"total"`
	Selectable int    `json:"selectable"`
	Music      bool   `json:"music"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

// scheduler starts a repeating timer and returns its channel along with a
// function that cancels it.
type scheduler func(d time.Duration) (<-chan time.Time, func())

func tickerScheduler(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}

type Hub struct {
	cfg     *Config
	engine  *selector.Engine
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan string
	done     chan struct{}

	schedule scheduler
	ticks    <-chan time.Time
	cancel   func()
}

func newHub(cfg *Config, catalog *selector.Catalog, rng *rand.Rand, schedule scheduler) (*Hub, error) {
	h := &Hub{
		cfg:      cfg,
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		commands: make(chan string),
		done:     make(chan struct{}),
		schedule: schedule,
	}

	engine, err := selector.New(catalog, cfg.selection, h, rng)
	if err != nil {
		return nil, err
	}
	h.engine = engine

	return h, nil
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}

	return rand.New(rand.NewPCG(seed, seed))
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.cancelTicks()
			h.closeAll()

			return

		case c := <-h.register:
			h.clients[c] = true

			h.send(c, h.stateMessage())

			img, err := h.engine.CurrentChoice()
			if h.engine.Running() || err != nil {
				img = h.engine.Current()
			}
			h.send(c, h.frameMessage(img))

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case cmd := <-h.commands:
			h.handleCommand(cmd)

		case <-h.ticks:
			if err := h.engine.Tick(); err != nil {
				logf(h.cfg, "GAMES: Frame not shown: %v", err)
			}
		}
	}
}

func (h *Hub) handleCommand(cmd string) {
	switch cmd {
	case "toggle":
		if h.engine.Running() {
			h.stop()
		} else {
			h.start()
		}
	case "start":
		h.start()
	case "stop":
		h.stop()
	}
}

func (h *Hub) start() {
	if !h.engine.Start() {
		return
	}

	h.ticks, h.cancel = h.schedule(h.cfg.interval)

	logf(h.cfg, "GAMES: Spin started (%s mode)", h.engine.Mode())

	h.broadcast(h.stateMessage())
}

func (h *Hub) stop() {
	stopped, err := h.engine.Stop()
	if !stopped {
		return
	}

	h.cancelTicks()

	if err != nil {
		logf(h.cfg, "GAMES: Final frame not shown: %v", err)
	}

	choice, err := h.engine.CurrentChoice()
	if err != nil {
		log.Printf("GAMES: Unable to read final choice: %v", err)
	} else {
		logf(h.cfg, "GAMES: Spin stopped on %q", choice.Name)

		h.broadcast(ResultMessage{
			Type: "result",
			ID:   choice.ID,
			Name: choice.Name,
			Src:  choice.Reference,
			Alt:  h.cfg.caption,
		})
	}

	h.broadcast(h.stateMessage())
}

func (h *Hub) cancelTicks() {
	if h.cancel != nil {
		h.cancel()
	}
	h.ticks = nil
	h.cancel = nil
}

// Render implements selector.Display by pushing the frame to every screen.
func (h *Hub) Render(img selector.Image) error {
	if len(h.clients) == 0 {
		return ErrNoRenderTarget
	}

	h.broadcast(h.frameMessage(img))

	return nil
}

func (h *Hub) frameMessage(img selector.Image) FrameMessage {
	return FrameMessage{
		Type: "frame",
		ID:   img.ID,
		Src:  img.Reference,
		Alt:  h.cfg.caption,
	}
}

func (h *Hub) stateMessage() StateMessage {
	catalog := h.engine.Catalog()

	return StateMessage{
		Type:       "state",
		Running:    h.engine.Running(),
		Mode:       h.engine.Mode().String(),
		IntervalMS: h.cfg.interval.Milliseconds(),
		Total:      catalog.Len(),
		Selectable: len(catalog.Selectable()),
		Music:      h.cfg.bgm != "",
	}
}

// send drops clients that cannot keep up rather than stalling the spin.
func (h *Hub) send(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg any) {
	for client := range h.clients {
		h.send(client, msg)
	}
}

// closeAll disconnects every client; used on shutdown.
func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 64),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: Screen connected from %s", realIP(r))

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start", "stop", "toggle":
			select {
			case h.commands <- msg.Type:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/"

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// ---- Static file paths ----

//go:embed guesswho/index.html
var indexHTML []byte

//go:embed guesswho/app.css
var guesswhoCSS []byte

//go:embed guesswho/app.js
var guesswhoJS []byte

func serveEmbedded(cfg *Config, contentType string, data []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

// registerGuessWho sets up routes so that:
//   - $prefix/              → HTML client
//   - $prefix/ws            → WebSocket for the shared session
//   - $prefix/qr            → PNG QR code for the game URL
//   - $prefix/images/:file  → portrait files
//   - $prefix/bgm           → background music, if configured
func registerGuessWho(cfg *Config, mux *httprouter.Router, h *Hub, store *ImageStore, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveEmbedded(cfg, "text/html; charset=utf-8", indexHTML))

	mux.GET(cfg.prefix+"/assets/guesswho/app.css", serveEmbedded(cfg, "text/css; charset=utf-8", guesswhoCSS))
	mux.GET(cfg.prefix+"/assets/guesswho/app.js", serveEmbedded(cfg, "application/javascript; charset=utf-8", guesswhoJS))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, h))

	mux.GET(cfg.prefix+"/qr", qrHandler(cfg))

	mux.GET(cfg.prefix+"/images/:file", serveImage(cfg, store, errs))

	if cfg.bgm != "" {
		mux.GET(cfg.prefix+"/bgm", serveMusic(cfg, store.fs))
	}
}

package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/biter777/countries"
	"github.com/gorilla/websocket"

	"github.com/sudorandom/edge-globe/pkg/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The bridge serves a public visualization; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is what the frontend sends over the bridge. A viewport
// message carries bounds; a click message carries the city name.
type clientMessage struct {
	Type   string         `json:"type"`
	Bounds *engine.Bounds `json:"bounds,omitempty"`
	City   string         `json:"city,omitempty"`
}

type pointsMessage struct {
	Type   string            `json:"type"`
	Key    string            `json:"key"`
	Points []engine.GeoPoint `json:"points"`
}

type detailMessage struct {
	Type        string   `json:"type"`
	City        string   `json:"city"`
	Country     string   `json:"country,omitempty"`
	CountryName string   `json:"countryName,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Weight      float64  `json:"weight"`
	IPs         []string `json:"ips"`
}

func cityDetail(p engine.GeoPoint) detailMessage {
	d := detailMessage{
		Type:    "cityDetail",
		City:    p.City,
		Country: p.Country,
		Lat:     p.Lat,
		Lng:     p.Lng,
		Weight:  p.Weight,
		IPs:     p.IPs,
	}
	if c := countries.ByName(p.Country); c != countries.Unknown {
		d.CountryName = c.String()
	}
	return d
}

// wsSession is one connected frontend. Writes go through a mutex because
// the debounce timer and the click handler both produce messages.
type wsSession struct {
	conn     *websocket.Conn
	cache    *engine.Cache
	debounce time.Duration

	writeMu sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer
	pending *engine.Bounds
}

func handleWS(cache *engine.Cache, debounce time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ws] Upgrade failed: %v", err)
			return
		}
		s := &wsSession{conn: conn, cache: cache, debounce: debounce}
		s.run(r)
	}
}

func (s *wsSession) run(r *http.Request) {
	defer func() {
		s.stopTimer()
		_ = s.conn.Close()
	}()

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] Read failed: %v", err)
			}
			return
		}

		switch msg.Type {
		case "viewport":
			s.scheduleViewport(r, msg.Bounds)
		case "click":
			s.handleClick(r, msg.City)
		default:
			log.Printf("[ws] Ignoring unknown message type %q", msg.Type)
		}
	}
}

// scheduleViewport debounces camera movement: only the last viewport in
// a burst triggers an aggregation pass.
func (s *wsSession) scheduleViewport(r *http.Request, bounds *engine.Bounds) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.pending = bounds
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.timerMu.Lock()
		bounds := s.pending
		s.timerMu.Unlock()
		s.sendPoints(r, bounds)
	})
}

func (s *wsSession) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *wsSession) sendPoints(r *http.Request, bounds *engine.Bounds) {
	points, err := s.cache.GetPoints(r.Context(), bounds)
	if err != nil {
		log.Printf("[ws] Point load failed: %v", err)
		return
	}
	s.write(pointsMessage{Type: "points", Key: engine.CacheKey(bounds), Points: points})
}

func (s *wsSession) handleClick(r *http.Request, city string) {
	points, err := s.cache.GetPointsForCity(r.Context(), city)
	if err != nil {
		log.Printf("[ws] City lookup failed: %v", err)
		return
	}
	if len(points) == 0 {
		s.write(map[string]string{"type": "cityDetail", "city": city, "error": "unknown city"})
		return
	}
	s.write(cityDetail(points[0]))
}

func (s *wsSession) write(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		log.Printf("[ws] Write failed: %v", err)
	}
}

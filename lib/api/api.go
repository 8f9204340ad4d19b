// Package api serves the playback status and a few controls over HTTP.
//
//	@title			happlay
//	@description	Status and control of the Hap movie player
//	@BasePath		/
package api

//go:generate go tool swag init -g api.go -o docs --parseDependency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/pprof"
	"sync"
	"time"

	_ "github.com/fosdem/happlay/lib/api/docs"
	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/metrics"
	"github.com/fosdem/happlay/lib/movie"
	"github.com/fosdem/happlay/lib/source/imgsource"
	"github.com/fosdem/happlay/lib/stats"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

var ErrUnknownMovie = errors.New("unknown movie")

const (
	EventMovieOpened  = "movie-opened"
	EventMovieToggled = "movie-toggled"
)

// MovieEvent is pushed to websocket clients when a movie is (re)opened or
// shown or hidden.
type MovieEvent struct {
	Event  string `json:"event"`
	Movie  string `json:"movie"`
	Hidden bool   `json:"hidden,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Player is the part of the render loop that the api can see and steer.
type Player interface {
	Statuses() []movie.Status
	Reopen(name string) error
	ImageSource(name string) (*imgsource.ImgSource, bool)
	RequestShutdown()
	AddEventListener(event string, callback func(data any))
}

type Api struct {
	srv    http.Server
	mux    *http.ServeMux
	cfg    *config.ApiCfg
	player Player
	log    *slog.Logger

	Stats *stats.Stats

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]*sync.Mutex
	// WsInterval is how often status packets are pushed to websocket
	// clients.
	WsInterval time.Duration
}

func New(cfg *config.ApiCfg, p Player, st *stats.Stats) *Api {
	a := &Api{}
	a.cfg = cfg
	a.mux = http.NewServeMux()
	a.player = p
	a.Stats = st
	a.log = log.Module("api")
	a.srv.Addr = cfg.Bind
	a.srv.Handler = a.mux
	a.wsClients = make(map[*websocket.Conn]*sync.Mutex)
	a.WsInterval = 2 * time.Second

	for _, event := range []string{EventMovieOpened, EventMovieToggled} {
		p.AddEventListener(event, func(data any) {
			packet, err := json.Marshal(data)
			if err != nil {
				a.log.Error("could not encode event", "err", err)
				return
			}
			a.broadcast(packet)
		})
	}

	if a.cfg.EnableProfiler {
		a.mux.HandleFunc("/prof", a.profileCPU)
	}
	a.mux.HandleFunc("POST /api/kill", a.suicide)
	a.mux.HandleFunc("GET /api/stats", a.getStats)
	a.mux.HandleFunc("GET /api/movies", a.getMovies)
	a.mux.HandleFunc("GET /api/movies/{movie}", a.getMovie)
	a.mux.HandleFunc("POST /api/movies/{movie}/reopen", a.reopenMovie)
	a.mux.HandleFunc("/api/media/{movie}", a.handleMedia)
	a.mux.HandleFunc("/api/ws", a.handleWebsocket)
	a.mux.Handle("GET /metrics", metrics.Handler())
	a.mux.Handle("/swagger/", httpSwagger.WrapHandler)
	return a
}

func (a *Api) Handler() http.Handler {
	return a.mux
}

func (a *Api) Serve() error {
	a.log.Info("starting web server", "bind", a.cfg.Bind)
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *Api) Shutdown(ctx context.Context) error {
	a.wsMu.Lock()
	for ws := range a.wsClients {
		_ = ws.Close()
	}
	a.wsMu.Unlock()
	return a.srv.Shutdown(ctx)
}

func (a *Api) writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(v)
	if err != nil {
		a.log.Error("could not write response", "err", err)
	}
}

// @Summary	Record a 10 second CPU profile
// @Router		/prof [get]
// @Tags		debug
// @Produce	octet-stream
// @Success	200
func (a *Api) profileCPU(w http.ResponseWriter, _ *http.Request) {
	err := pprof.StartCPUProfile(w)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not start CPU profile: %s", err), http.StatusInternalServerError)
		return
	}
	time.Sleep(10 * time.Second)
	pprof.StopCPUProfile()
}

// @Summary	Stop the player
// @Router		/api/kill [post]
// @Tags		base
// @Success	200
func (a *Api) suicide(w http.ResponseWriter, _ *http.Request) {
	a.log.Warn("shutting down as per api request")
	a.player.RequestShutdown()
	a.writeJson(w, "ok")
}

// @Summary	Render loop statistics
// @Router		/api/stats [get]
// @Tags		base
// @Produce	json
// @Success	200	{object}	stats.Stats
func (a *Api) getStats(w http.ResponseWriter, _ *http.Request) {
	snap := a.Stats.Snapshot()
	a.writeJson(w, &snap)
}

// ServeInBackground starts the api when it is configured and returns nil
// otherwise.
func ServeInBackground(cfg *config.ApiCfg, p Player, st *stats.Stats) *Api {
	if cfg == nil || cfg.Bind == "" {
		return nil
	}
	theApi := New(cfg, p, st)
	go func() {
		err := theApi.Serve()
		if err != nil {
			theApi.log.Error("could not start web server", "err", err)
		}
	}()
	return theApi
}

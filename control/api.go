// Package control is the HTTP control surface for a dispense run.
package control

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"log"
	"net/http"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/mastercactapus/plateloader/coord"
	"github.com/mastercactapus/plateloader/dispense"
	"github.com/mastercactapus/plateloader/plate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeChannel is the SSE channel outcome events are published on.
const OutcomeChannel = "/events/outcome"

// Runner is the dispense run being controlled.
type Runner interface {
	Start(from plate.Well) error
	Pause()
	Reset()
	Resume() plate.Well
	Status() dispense.Status
	Events() <-chan dispense.Event
}

// Positioner maps wells to machine positions.
type Positioner interface {
	WellPosition(plate.Well) (coord.Point, error)
}

// API serves the control endpoints.
type API struct {
	http.Handler

	r     Runner
	pos   Positioner
	board *Board
	sse   *sse.Server
	done  chan struct{}
}

// NewAPI starts consuming r's events. Gatherer is optional and exposed
// at /metrics.
func NewAPI(r Runner, pos Positioner, g prometheus.Gatherer) *API {
	router := mux.NewRouter()
	a := &API{
		Handler: router,
		r:       r,
		pos:     pos,
		board:   &Board{},
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
		done: make(chan struct{}),
	}

	router.HandleFunc("/api/start", a.start).Methods("POST")
	router.HandleFunc("/api/pause", a.pause).Methods("POST")
	router.HandleFunc("/api/reset", a.reset).Methods("POST")
	router.HandleFunc("/api/status", a.status).Methods("GET")
	router.HandleFunc("/api/wells", a.wells).Methods("GET")
	router.PathPrefix("/events/").Handler(a.sse)
	if g != nil {
		router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}

	go a.loop()
	return a
}

// Board returns the well board fed by the run's events.
func (a *API) Board() *Board { return a.board }

// Done is closed once the run's event channel is closed.
func (a *API) Done() <-chan struct{} { return a.done }

func (a *API) loop() {
	defer close(a.done)
	for e := range a.r.Events() {
		a.board.Apply(e)
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("ERROR: marshal json: %+v", err)
			continue
		}
		a.sse.SendMessage(OutcomeChannel, sse.SimpleMessage(string(data)))
	}
}

// Close stops the event stream.
func (a *API) Close() error {
	a.sse.Shutdown()
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *API) start(w http.ResponseWriter, req *http.Request) {
	from := a.r.Resume()
	if s := req.FormValue("well"); s != "" {
		var err error
		from, err = plate.ParseWell(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	err := a.r.Start(from)
	switch {
	case errors.Is(err, dispense.ErrRunActive), errors.Is(err, dispense.ErrResetRequired):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, plate.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("ERROR: start at %s: %+v", from, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// the run homes before its first well, so no event can precede this
	if from == 0 {
		a.board.Reset()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) pause(w http.ResponseWriter, req *http.Request) {
	a.r.Pause()
	w.WriteHeader(http.StatusAccepted)
}

// reset clears the board right away. An active run's final event clears
// it again once the in-flight well has finished.
func (a *API) reset(w http.ResponseWriter, req *http.Request) {
	a.r.Reset()
	a.board.Reset()
	w.WriteHeader(http.StatusAccepted)
}

type statusResponse struct {
	dispense.Status
	Board Snapshot `json:"board"`
}

func (a *API) status(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, statusResponse{
		Status: a.r.Status(),
		Board:  a.board.Snapshot(),
	})
}

type wellPosition struct {
	Well plate.Well `json:"well"`
	Name string     `json:"name"`
	coord.Point
}

func (a *API) wells(w http.ResponseWriter, req *http.Request) {
	res := make([]wellPosition, 0, plate.Count)
	for i := plate.Well(0); i < plate.Count; i++ {
		p, err := a.pos.WellPosition(i)
		if err != nil {
			log.Printf("ERROR: position %s: %+v", i, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		res = append(res, wellPosition{Well: i, Name: i.Name(), Point: p})
	}
	writeJSON(w, res)
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qbloch"
	"github.com/theapemachine/qbloch/internal/session"
)

type simulateRequest struct {
	Gates []string `json:"gates"`
	Shots *int     `json:"shots,omitempty"`
	Seed  *uint64  `json:"seed,omitempty"`
}

type simulateResponse struct {
	Amplitudes    []string           `json:"amplitudes"`
	Probabilities []float64          `json:"probabilities"`
	Bloch         qbloch.BlochVector `json:"bloch"`
	Dirac         string             `json:"dirac"`
	Counts        *qbloch.Counts     `json:"counts,omitempty"`
}

type gateRequest struct {
	Gate  string `json:"gate"`
	Index *int   `json:"index,omitempty"`
}

type measureRequest struct {
	Trials *int    `json:"trials,omitempty"`
	Seed   *uint64 `json:"seed,omitempty"`
}

type measureResponse struct {
	ID      string        `json:"id"`
	Version uint64        `json:"version"`
	Trials  int           `json:"trials"`
	Counts  qbloch.Counts `json:"counts"`
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)
	}
	return nil
}

func seedOptions(seed *uint64) []qbloch.MeasureOption {
	if seed == nil {
		return nil
	}
	return []qbloch.MeasureOption{qbloch.WithSeed(*seed)}
}

/*
takeShots resolves the trial count of a measurement request and charges it to
the shot budget. A missing count falls back to the configured default.
*/
func (s *Server) takeShots(trials *int) (int, error) {
	n := s.config.DefaultTrials
	if trials != nil {
		n = *trials
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %d", qbloch.ErrInvalidTrialCount, n)
	}
	if n > s.config.MaxTrials {
		return 0, fmt.Errorf("%w: %d exceeds the maximum of %d", qbloch.ErrInvalidTrialCount, n, s.config.MaxTrials)
	}
	if s.budget.Limit(n) {
		return 0, fmt.Errorf("%w: %d shots requested", ErrBudgetExceeded, n)
	}

	s.metrics.recordShots(n)
	return n, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) error {
	var req simulateRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	gates, err := qbloch.ParseGates(req.Gates)
	if err != nil {
		return err
	}
	state, err := s.engine.ApplySequence(gates)
	if err != nil {
		return err
	}

	p0, p1 := state.Probabilities()
	resp := simulateResponse{
		Amplitudes:    qbloch.FormatAmplitudes(state),
		Probabilities: []float64{p0, p1},
		Bloch:         s.engine.ToBloch(state),
		Dirac:         qbloch.Dirac(state),
	}

	if req.Shots != nil {
		trials, err := s.takeShots(req.Shots)
		if err != nil {
			return err
		}
		counts, err := s.engine.Measure(state, trials, seedOptions(req.Seed)...)
		if err != nil {
			return err
		}
		resp.Counts = &counts
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusCreated, s.store.Create())
	return nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) error {
	snap, err := s.store.Snapshot(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, snap)
	return nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) error {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) error {
	var since uint64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: since %q", ErrBadRequest, raw)
		}
		since = v
	}

	history, err := s.store.History(r.PathValue("id"), since)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, history)
	return nil
}

func (s *Server) handleAppendGate(w http.ResponseWriter, r *http.Request) error {
	var req gateRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	var (
		snap session.Snapshot
		err  error
	)
	if req.Index != nil {
		snap, err = s.store.Insert(r.PathValue("id"), *req.Index, req.Gate)
	} else {
		snap, err = s.store.Append(r.PathValue("id"), req.Gate)
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, snap)
	return nil
}

func (s *Server) handleClearGates(w http.ResponseWriter, r *http.Request) error {
	snap, err := s.store.Clear(r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, snap)
	return nil
}

func (s *Server) handleRemoveGate(w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return fmt.Errorf("%w: index %q", ErrBadRequest, r.PathValue("index"))
	}

	var version *uint64
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: version %q", ErrBadRequest, raw)
		}
		version = &v
	}

	snap, err := s.store.RemoveAt(r.PathValue("id"), index, version)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, snap)
	return nil
}

func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) error {
	var req measureRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}

	snap, err := s.store.Snapshot(r.PathValue("id"))
	if err != nil {
		return err
	}

	trials, err := s.takeShots(req.Trials)
	if err != nil {
		return err
	}

	counts, err := s.store.Measure(snap.ID, trials, seedOptions(req.Seed)...)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, measureResponse{
		ID:      snap.ID,
		Version: snap.Version,
		Trials:  trials,
		Counts:  counts,
	})
	return nil
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

/*
handleFeed upgrades to a websocket that carries the session's snapshot after
every mutation, starting with the current one. The socket is closed when the
session is deleted or evicted, or when the client goes away.
*/
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) error {
	feed, cancel, err := s.store.Subscribe(r.PathValue("id"))
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		cancel()
		errnie.Warn("ws upgrade: %v", err)
		return nil
	}

	go readPump(conn, cancel)
	go writePump(conn, feed)
	return nil
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, feed <-chan session.Snapshot) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case snap, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package harness

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"webqa-probe/internal/observe"
)

// ReadLog decodes a JSONL observation log in full. The report command uses
// this to recompute a summary from a stored run.
func ReadLog(r io.Reader) ([]observe.Observation, error) {
	dec := json.NewDecoder(r)
	var rows []observe.Observation
	for {
		var obs observe.Observation
		if err := dec.Decode(&obs); err != nil {
			if err == io.EOF {
				return rows, nil
			}
			return nil, err
		}
		rows = append(rows, obs)
	}
}

// ReadLogFile opens a file and decodes its observations.
func ReadLogFile(path string) ([]observe.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLog(f)
}

// Replay re-emits recorded observations from r. A speed > 0 preserves the
// recorded inter-observation gaps (divided by speed); speed <= 0 replays
// without artificial delay.
func Replay(r io.Reader, emit func(observe.Observation) error, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var obs observe.Observation
		if err := dec.Decode(&obs); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := obs.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := emit(obs); err != nil {
			return err
		}
		prev = obs.Timestamp
	}
}

// ReplayFile opens a file and replays its observations.
func ReplayFile(path string, emit func(observe.Observation) error, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Replay(f, emit, speed)
}

package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/tkjaer/hops/internal/shared"
)

// JSONOutput writes the final report to a file or stdout
type JSONOutput struct {
	mu       sync.Mutex
	file     *os.File
	enc      *json.Encoder
	toStdout bool
}

func NewJSONOutput(filename string) (*JSONOutput, error) {
	if filename == "" {
		return &JSONOutput{
			file:     os.Stdout,
			enc:      json.NewEncoder(os.Stdout),
			toStdout: true,
		}, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &JSONOutput{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Progress is a no-op, JSON is only written once the run is complete
func (j *JSONOutput) Progress(shared.Event) {}

func (j *JSONOutput) Complete(report *shared.Report) error {
	if report == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(report)
}

func (j *JSONOutput) Close() error {
	if j.toStdout {
		return nil
	}
	return j.file.Close()
}

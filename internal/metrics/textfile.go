package metrics

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every metric in g to path in the text exposition format.
// The file is written atomically, so a collector never reads a partial file.
func WriteTextfile(path string, g prom.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

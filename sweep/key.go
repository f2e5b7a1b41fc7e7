package sweep

import (
	"fmt"
	"strings"
)

// Key identifies one configuration of the sweep.
type Key struct {
	Benchmark  string `json:"benchmark"`
	CPU        string `json:"cpu"`
	Mem        string `json:"mem"`
	DRAM       string `json:"dram_model"`
	Clock      string `json:"clockspeed"`
	Prefetcher string `json:"prefetcher"`
}

// PathElements returns the key as directory names, in the order used by the
// output layout. DRAM comes before clock.
func (k Key) PathElements() []string {
	return []string{k.Benchmark, k.CPU, k.Mem, k.DRAM, k.Clock, k.Prefetcher}
}

// String returns the slash-joined path elements. It doubles as the job ID.
func (k Key) String() string {
	return strings.Join(k.PathElements(), "/")
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 6 {
		return Key{}, fmt.Errorf("invalid key %q: want 6 elements, got %d",
			s, len(parts))
	}

	return Key{
		Benchmark:  parts[0],
		CPU:        parts[1],
		Mem:        parts[2],
		DRAM:       parts[3],
		Clock:      parts[4],
		Prefetcher: parts[5],
	}, nil
}

package sweep

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// DiscoverBenchmarks lists the benchmark directories under root. Hidden
// directories such as .git are skipped. The result is sorted so that the
// enumeration order does not depend on the file system.
func DiscoverBenchmarks(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing benchmarks in %s: %w", root, err)
	}

	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return e.IsDir() && !strings.HasPrefix(e.Name(), ".")
	})

	names := lo.Map(dirs, func(e os.DirEntry, _ int) string {
		return e.Name()
	})

	sort.Strings(names)

	return names, nil
}

package sweep_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/prefetchsweep/sweep"
)

var _ = Describe("Dimensions", func() {
	It("should default to the prefetcher study grid", func() {
		d := sweep.DefaultDimensions()

		Expect(d.CPUs).To(Equal([]string{"Minor4"}))
		Expect(d.Mems).To(Equal([]string{"Slow"}))
		Expect(d.Clocks).To(Equal([]string{"1GHz"}))
		Expect(d.DRAMs).To(Equal([]string{"DDR3_2133_8x8"}))
		Expect(d.Prefetchers).To(HaveLen(5))
		Expect(d.Benchmarks).To(BeEmpty())
	})

	Context("validation", func() {
		var d sweep.Dimensions

		BeforeEach(func() {
			d = sweep.DefaultDimensions().WithBenchmarks([]string{"CCa", "MI"})
		})

		It("should accept the default grid", func() {
			Expect(d.Validate()).To(Succeed())
		})

		It("should reject an empty axis", func() {
			d.Benchmarks = nil
			Expect(d.Validate()).To(MatchError(ContainSubstring("benchmarks: no values")))
		})

		It("should reject values with path separators", func() {
			d.CPUs = []string{"Minor4/x"}
			Expect(d.Validate()).To(MatchError(ContainSubstring("path separator")))
		})

		It("should reject dot values", func() {
			d.Mems = []string{".."}
			Expect(d.Validate()).To(HaveOccurred())
		})

		It("should reject duplicated values", func() {
			d.Prefetchers = []string{"StridePrefetcher", "StridePrefetcher"}
			Expect(d.Validate()).To(MatchError(ContainSubstring("duplicated")))
		})
	})

	Context("loading from YAML", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should override only the axes present in the file", func() {
			path := filepath.Join(dir, "sweep.yaml")
			Expect(os.WriteFile(path, []byte(
				"clocks: [1GHz, 2GHz]\nprefetchers:\n  - StridePrefetcher\n"),
				0o644)).To(Succeed())

			d, err := sweep.LoadDimensions(path)

			Expect(err).ToNot(HaveOccurred())
			Expect(d.Clocks).To(Equal([]string{"1GHz", "2GHz"}))
			Expect(d.Prefetchers).To(Equal([]string{"StridePrefetcher"}))
			Expect(d.CPUs).To(Equal([]string{"Minor4"}))
		})

		It("should report malformed files", func() {
			path := filepath.Join(dir, "bad.yaml")
			Expect(os.WriteFile(path, []byte("clocks: {"), 0o644)).To(Succeed())

			_, err := sweep.LoadDimensions(path)

			Expect(err).To(MatchError(ContainSubstring("parsing sweep file")))
		})

		It("should report missing files", func() {
			_, err := sweep.LoadDimensions(filepath.Join(dir, "none.yaml"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})

var _ = Describe("DiscoverBenchmarks", func() {
	It("should list sorted directories and skip hidden ones", func() {
		root := GinkgoT().TempDir()
		for _, name := range []string{"STREAM", "CCa", ".git", "MI"} {
			Expect(os.Mkdir(filepath.Join(root, name), 0o755)).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(root, "README"), nil, 0o644)).To(Succeed())

		names, err := sweep.DiscoverBenchmarks(root)

		Expect(err).ToNot(HaveOccurred())
		Expect(names).To(Equal([]string{"CCa", "MI", "STREAM"}))
	})

	It("should fail on a missing root", func() {
		_, err := sweep.DiscoverBenchmarks(filepath.Join(GinkgoT().TempDir(), "x"))
		Expect(err).To(HaveOccurred())
	})
})

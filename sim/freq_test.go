package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		var f = 1 * GHz
		Expect(f.Period()).To(BeNumerically("~", 1e-9, 1e-21))
	})

	It("should convert seconds to cycles", func() {
		var f = 2 * GHz
		Expect(f.Cycle(1e-6)).To(Equal(uint64(2000)))
	})

	It("should parse simulator clock strings", func() {
		f, err := ParseFreq("1GHz")
		Expect(err).ToNot(HaveOccurred())
		Expect(f).To(BeNumerically("==", 1e9))

		f, err = ParseFreq("2.5 GHz")
		Expect(err).ToNot(HaveOccurred())
		Expect(f).To(BeNumerically("==", 2.5e9))

		f, err = ParseFreq("500MHz")
		Expect(err).ToNot(HaveOccurred())
		Expect(f).To(BeNumerically("==", 5e8))
	})

	It("should reject strings without a unit", func() {
		_, err := ParseFreq("1000")
		Expect(err).To(MatchError(ContainSubstring("missing unit")))
	})

	It("should reject non-positive values", func() {
		_, err := ParseFreq("0GHz")
		Expect(err).To(HaveOccurred())

		_, err = ParseFreq("-1GHz")
		Expect(err).To(HaveOccurred())
	})

	It("should give ticks per cycle against the tick rate", func() {
		var f = 1 * GHz
		Expect(f.TicksPerCycle(THz)).To(BeNumerically("~", 1000, 1e-9))

		f = 3 * GHz
		Expect(f.TicksPerCycle(THz)).To(BeNumerically("~", 333.333, 1e-3))
	})

	It("should format with the largest unit", func() {
		Expect((1 * GHz).String()).To(Equal("1GHz"))
		Expect((1500 * MHz).String()).To(Equal("1.5GHz"))
		Expect((800 * MHz).String()).To(Equal("800MHz"))
	})
})

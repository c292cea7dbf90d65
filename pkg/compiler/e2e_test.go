package compiler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"decoyc/pkg/compiler"
)

var _ = Describe("Compile", func() {
	It("compiles a declaration and assignment", func() {
		bytecode, err := compiler.Compile("cv a ui8\nav a 5\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytecode).To(Equal([]byte{
			0x00, 0x01, 0x00, 0x00, 0x00, 0x61, 0x02,
			0x01, 0x00, 0x00, 0x00, 0x00, 0x06, 0x05, 0x00, 0x00, 0x00,
		}))
	})

	It("compiles a counting loop end to end", func() {
		src := "cv i ui8\ncv max ui8\nav max 3\ndfp loop\ninc i\n" +
			"pl \"i=\" i\ncljmp i max loop done\ndfp done\nnop\n"
		bytecode, err := compiler.Compile(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytecode).NotTo(BeEmpty())
		Expect(bytecode[0]).To(Equal(byte(0))) // first instruction is cv
		Expect(bytecode[len(bytecode)-1]).To(Equal(byte(0xff)))
	})

	It("accepts sources without a trailing newline", func() {
		bytecode, err := compiler.Compile("nop")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytecode).To(Equal([]byte{0xff}))
	})

	It("emits nothing for dfp", func() {
		bytecode, err := compiler.Compile("dfp only\nnop\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytecode).To(Equal([]byte{0xff}))
	})

	It("rejects a redeclared variable with the offending line", func() {
		_, err := compiler.Compile("cv a ui8\ncv a ui8\n")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("At instruction cv (line 2)"))
		Expect(err.Error()).To(ContainSubstring("'a'"))
	})

	It("rejects an out-of-range literal with the offending instruction", func() {
		_, err := compiler.Compile("cv a ui8\nav a 300\n")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("At instruction av (line 2)"))
		Expect(err.Error()).To(ContainSubstring("out of range for type ui8"))
	})

	It("rejects malformed lines with a parse error", func() {
		_, err := compiler.Compile("cv a\n")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(HavePrefix("Line 1:"))
	})

	It("compiles units independently", func() {
		first, err := compiler.Compile("cv a ui8\nav a 1\n")
		Expect(err).NotTo(HaveOccurred())

		// A second unit reusing the same names must not clash with the
		// first one's declarations.
		second, err := compiler.Compile("cv a ui8\nav a 1\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})

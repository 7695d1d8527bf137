package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/tsq/protocol"
)

var _ = Describe("Parsing", func() {
	Describe("ParseLine()", func() {
		It("parses a status line", func() {
			line := protocol.ParseLine("error id=0 msg=ok\n")

			Expect(line.Command).To(Equal("error"))
			Expect(line.IsStatus()).To(BeTrue())
			Expect(line.Get("id")).To(Equal("0"))
			Expect(line.Get("msg")).To(Equal("ok"))
			Expect(line.Opts).To(BeEmpty())
		})

		It("treats a line whose first token contains = as a data line", func() {
			line := protocol.ParseLine("virtualserver_id=1 virtualserver_name=Gaming\n")

			Expect(line.Command).To(BeEmpty())
			Expect(line.IsStatus()).To(BeFalse())
			Expect(line.Get("virtualserver_id")).To(Equal("1"))
			Expect(line.Get("virtualserver_name")).To(Equal("Gaming"))
		})

		It("unescapes values", func() {
			line := protocol.ParseLine(`error id=2568 msg=insufficient\sclient\spermissions` + "\n")

			Expect(line.Get("msg")).To(Equal("insufficient client permissions"))
		})

		It("splits key from value on the first = only", func() {
			line := protocol.ParseLine("key=a=b\n")

			Expect(line.Get("key")).To(Equal("a=b"))
		})

		It("collects a pipe joined token into a Sequence under the shared key", func() {
			line := protocol.ParseLine("sid=1 name=test clid=4|clid=5|clid=6\n")

			Expect(line.Command).To(BeEmpty())
			Expect(line.Get("sid")).To(Equal("1"))
			Expect(line.Keys["clid"]).To(Equal(protocol.Sequence{"4", "5", "6"}))
		})

		It("unescapes the values inside a pipe joined token", func() {
			line := protocol.ParseLine(`name=a\sb|name=c\sd` + "\n")

			Expect(line.Keys["name"]).To(Equal(protocol.Sequence{"a b", "c d"}))
		})

		It("stores a mixed key pipe token under the last piece's key name", func() {
			// The wire format never legitimately mixes key names inside
			// one token; when it happens anyway the last name wins.
			line := protocol.ParseLine("sid=1|name=foo\n")

			Expect(line.Keys).NotTo(HaveKey("sid"))
			Expect(line.Keys["name"]).To(Equal(protocol.Sequence{"1", "foo"}))
		})

		It("parses dash tokens as opts", func() {
			line := protocol.ParseLine("clientlist -uid -away\n")

			Expect(line.Command).To(Equal("clientlist"))
			Expect(line.Opts).To(Equal([]string{"uid", "away"}))
		})

		It("skips malformed tokens without failing", func() {
			Expect(func() {
				line := protocol.ParseLine("error id=0 junk  msg=ok\n")
				Expect(line.Get("id")).To(Equal("0"))
				Expect(line.Get("msg")).To(Equal("ok"))
			}).NotTo(Panic())
		})

		It("does not fail on an empty line", func() {
			Expect(func() { protocol.ParseLine("\n") }).NotTo(Panic())
		})

		It("skips a pipe piece without a value", func() {
			line := protocol.ParseLine("clid=1|junk|clid=2\n")

			Expect(line.Keys["clid"]).To(Equal(protocol.Sequence{"1", "2"}))
		})
	})

	Describe("StatusFromLine()", func() {
		It("lifts id and msg out of the key set", func() {
			status := protocol.StatusFromLine(protocol.ParseLine("error id=1 msg=bad failed_permid=4\n"))

			Expect(status.ID).To(Equal("1"))
			Expect(status.Msg).To(Equal("bad"))
			Expect(status.Keys["failed_permid"]).To(Equal(protocol.Scalar("4")))
		})
	})
})

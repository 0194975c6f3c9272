package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/weftworks/weft/cmd/weft/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers the mock server flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"listen", "fixtures", "no-fallback",
			"record-driver", "sqlite",
			"log-level", "log-format", "log-file",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %s", name)
		}
	})

	It("defaults listen to the configured default", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":4040"))
	})
})

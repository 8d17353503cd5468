package internal_test

import (
	"context"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("context helpers", func() {
	It("should round-trip the subject", func() {
		ctx := internal.ContextWithSubject(context.Background(), "acc-1")
		Expect(internal.SubjectFromContext(ctx)).To(Equal("acc-1"))
		Expect(internal.SubjectFromContext(context.Background())).To(BeEmpty())
	})

	It("should default a non-positive timeout", func() {
		ctx, cancel := internal.WithTimeout(context.Background(), 0)
		defer cancel()

		deadline, ok := ctx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(time.Until(deadline)).To(BeNumerically("~", 5*time.Second, time.Second))
	})
})

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("TokenService", func() {
	var (
		current time.Time
		clock   func() time.Time
		ttl     time.Duration
		svc     *TokenService
	)

	ginkgo.BeforeEach(func() {
		current = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		clock = func() time.Time { return current }
		ttl = 24 * time.Hour

		var err error
		svc, err = NewTokenService(testSecret, ttl, WithClock(clock))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
	})

	signWith := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return token
	}

	ginkgo.Describe("NewTokenService", func() {
		ginkgo.It("should refuse a blank secret", func() {
			_, err := NewTokenService("   ", ttl)
			gomega.Expect(err).To(gomega.MatchError(ErrMissingSecret))
		})

		ginkgo.It("should refuse a non-positive ttl", func() {
			_, err := NewTokenService(testSecret, 0)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Issue and Verify", func() {
		ginkgo.DescribeTable("should round-trip the subject",
			func(subject string, lifetime time.Duration) {
				s, err := NewTokenService(testSecret, lifetime, WithClock(clock))
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				token, err := s.Issue(subject)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				got, err := s.Verify(token)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(got).To(gomega.Equal(subject))
			},
			ginkgo.Entry("uuid subject", "7f0c2a5e-8a53-4c57-9c8e-3f0f6b1d2e11", 24*time.Hour),
			ginkgo.Entry("short lived", "abc", time.Second),
			ginkgo.Entry("unicode subject", "sübject-✓", time.Minute),
		)

		ginkgo.It("should stamp iat at issue time and exp one ttl later", func() {
			token, err := svc.Issue("subject-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims := &Claims{}
			_, _, err = jwt.NewParser().ParseUnverified(token, claims)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.IssuedAt.Time.Equal(current)).To(gomega.BeTrue())
			gomega.Expect(claims.ExpiresAt.Time.Equal(current.Add(ttl))).To(gomega.BeTrue())
		})

		ginkgo.It("should accept a token one second before expiry and reject it at expiry", func() {
			token, err := svc.Issue("subject-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			current = current.Add(ttl - time.Second)
			_, err = svc.Verify(token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			current = current.Add(time.Second)
			_, err = svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrExpired))

			current = current.Add(time.Hour)
			_, err = svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrExpired))
		})
	})

	ginkgo.Describe("Verify failures", func() {
		ginkgo.It("should report a token signed with another secret as an invalid signature", func() {
			other, err := NewTokenService("another-secret", ttl, WithClock(clock))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			token, err := other.Issue("subject-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidSignature))
		})

		ginkgo.It("should report expiry even when the signature is also wrong", func() {
			other, err := NewTokenService("another-secret", ttl, WithClock(clock))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			token, err := other.Issue("subject-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			current = current.Add(ttl)
			_, err = svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrExpired))
		})

		ginkgo.It("should reject a payload swapped in from another token", func() {
			first, err := svc.Issue("subject-1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			second, err := svc.Issue("subject-2")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			a := strings.Split(first, ".")
			b := strings.Split(second, ".")
			forged := strings.Join([]string{a[0], b[1], a[2]}, ".")

			_, err = svc.Verify(forged)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidSignature))
		})

		ginkgo.DescribeTable("should treat undecodable input as malformed",
			func(token string) {
				_, err := svc.Verify(token)
				gomega.Expect(err).To(gomega.MatchError(ErrMalformed))
			},
			ginkgo.Entry("empty", ""),
			ginkgo.Entry("garbage", "garbage"),
			ginkgo.Entry("two segments", "abc.def"),
			ginkgo.Entry("bad base64", "!!!.@@@.###"),
		)

		ginkgo.It("should reject tokens signed with an algorithm other than HS256", func() {
			claims := jwt.RegisteredClaims{
				Subject:   "subject-1",
				ExpiresAt: jwt.NewNumericDate(current.Add(time.Hour)),
			}

			hs512 := signWith(jwt.SigningMethodHS512, []byte(testSecret), claims)
			_, err := svc.Verify(hs512)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidSignature))

			none := signWith(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)
			_, err = svc.Verify(none)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidSignature))
		})

		ginkgo.It("should treat a token without exp as malformed", func() {
			token := signWith(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "subject-1"})

			_, err := svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrMalformed))
		})

		ginkgo.It("should treat a token without a subject as malformed", func() {
			token := signWith(jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(current.Add(time.Hour)),
			})

			_, err := svc.Verify(token)
			gomega.Expect(err).To(gomega.MatchError(ErrMalformed))
		})
	})
})

package internal_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadConfig", func() {
	var dir string

	writeConfig := func(body string) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	}

	setEnv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(os.Unsetenv, key)
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		for _, key := range []string{"EMPDIR_SECURITY_JWT_SECRET", "EMPDIR_DATABASE_SOURCE", "EMPDIR_HTTP_SERVER_PORT"} {
			if old, ok := os.LookupEnv(key); ok {
				Expect(os.Unsetenv(key)).To(Succeed())
				DeferCleanup(os.Setenv, key, old)
			}
		}
	})

	It("should fill defaults around the required keys", func() {
		writeConfig(`
database:
  source: postgres://localhost/employees
security:
  jwt_secret: s3cret
`)

		cfg, err := internal.LoadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Server.Origins()).To(Equal([]string{"*"}))
		Expect(cfg.Server.MaxBodyBytes).To(Equal(int64(10 << 20)))
		Expect(cfg.Security.TokenTTL).To(Equal(24 * time.Hour))
		Expect(cfg.Storage.Driver).To(Equal(internal.StorageDriverDisk))
		Expect(cfg.Storage.MaxUploadBytes).To(Equal(int64(5 << 20)))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})

	It("should refuse to start without a signing secret", func() {
		writeConfig(`
database:
  source: postgres://localhost/employees
`)

		_, err := internal.LoadConfig(dir)

		Expect(err).To(MatchError(ContainSubstring("jwt_secret is required")))
	})

	It("should take overrides from the environment", func() {
		setEnv("EMPDIR_SECURITY_JWT_SECRET", "from-env")
		setEnv("EMPDIR_DATABASE_SOURCE", "postgres://env/employees")
		setEnv("EMPDIR_HTTP_SERVER_PORT", "9090")

		cfg, err := internal.LoadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.JWTSecret).To(Equal("from-env"))
		Expect(cfg.Database.GetDSN()).To(Equal("postgres://env/employees"))
		Expect(cfg.Server.Port).To(Equal(9090))
	})

	It("should parse durations and the origin list", func() {
		writeConfig(`
http_server:
  allowed_origins: "https://a.example, https://b.example"
database:
  source: postgres://localhost/employees
security:
  jwt_secret: s3cret
  token_ttl: 90m
`)

		cfg, err := internal.LoadConfig(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.TokenTTL).To(Equal(90 * time.Minute))
		Expect(cfg.Server.Origins()).To(Equal([]string{"https://a.example", "https://b.example"}))
	})

	It("should report every invalid section", func() {
		writeConfig(`
http_server:
  port: 0
database:
  source: postgres://localhost/employees
security:
  jwt_secret: s3cret
storage:
  driver: s3
observability:
  logging:
    level: loud
`)

		_, err := internal.LoadConfig(dir)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid port 0"))
		Expect(err.Error()).To(ContainSubstring("s3 bucket and region are required"))
		Expect(err.Error()).To(ContainSubstring(`invalid log level "loud"`))
	})

	It("should fail on an unreadable config file", func() {
		writeConfig("database: [unterminated")

		_, err := internal.LoadConfig(dir)

		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("SecurityConfig", func() {
	DescribeTable("Validate",
		func(cfg internal.SecurityConfig, want string) {
			err := cfg.Validate()
			if want == "" {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(err).To(MatchError(ContainSubstring(want)))
		},
		Entry("valid", internal.SecurityConfig{JWTSecret: "x", TokenTTL: time.Hour, BCryptCost: 10}, ""),
		Entry("blank secret", internal.SecurityConfig{JWTSecret: "   ", TokenTTL: time.Hour, BCryptCost: 10}, "jwt_secret is required"),
		Entry("zero ttl", internal.SecurityConfig{JWTSecret: "x", BCryptCost: 10}, "token_ttl must be positive"),
		Entry("weak cost", internal.SecurityConfig{JWTSecret: "x", TokenTTL: time.Hour, BCryptCost: 4}, "bcrypt_cost"),
	)
})

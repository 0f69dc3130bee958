package ingestconfig

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeTemp(content string) string {
	dir := GinkgoT().TempDir()
	path := filepath.Join(dir, "convert.yaml")
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("applies explicit overrides", func() {
		path := writeTemp(`
abort_on_error: true
enable_logging: true
log_level: debug
thread_count: 4
single_thread: false
`)
		_, err := Load(path)
		Expect(err).ToNot(HaveOccurred())
	})

	It("fills in defaults for omitted fields", func() {
		path := writeTemp("thread_count: 2\n")
		_, err := Load(path)
		Expect(err).ToNot(HaveOccurred())
	})

	It("rejects an unknown log_level", func() {
		path := writeTemp("log_level: verbose\n")
		_, err := Load(path)
		Expect(err).To(HaveOccurred(), "expected an error for an unknown log_level")
	})

	It("rejects a missing file", func() {
		_, err := Load(filepath.Join(GinkgoT().TempDir(), "does-not-exist.yaml"))
		Expect(err).To(HaveOccurred(), "expected an error for a missing file")
	})
})

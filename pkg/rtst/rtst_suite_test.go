package rtst_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"
)

func TestRtst(t *testing.T) {
	RegisterFailHandler(Fail)
	SetDefaultEventuallyTimeout(10 * time.Second)
	SetDefaultEventuallyPollingInterval(50 * time.Millisecond)
	RunSpecs(t, "rtst Suite")
}

var _ = BeforeSuite(func() {
	log.SetLevel(log.WarnLevel)
	log.SetOutput(GinkgoWriter)
})

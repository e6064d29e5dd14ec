package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lakepipe/lakepipe/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	log := logger.NewLogger("test-service", "debug", true)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	It("Should have `test-service` as service name", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		var actual map[string]interface{}
		json.Unmarshal(logOutput.Bytes(), &actual)

		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		var actual map[string]interface{}
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Info("Testing")
		json.Unmarshal(logOutput.Bytes(), &actual)

		Expect(actual["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		log.Warn("Testing")
		var actual map[string]interface{}
		json.Unmarshal(logOutput.Bytes(), &actual)

		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should concatenate variadic message args", func() {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)

		// Args must be spread into logrus, not logged as a single slice value.
		log.Error("count=", 3, " name=", "abc")
		var actual map[string]interface{}
		json.Unmarshal(logOutput.Bytes(), &actual)

		Expect(actual["msg"]).To(Equal("count=3 name=abc"))
	})
})

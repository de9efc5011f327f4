package config

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLokiLogger_InvalidLevel(t *testing.T) {
	RegisterTestingT(t)

	_, err := NewLokiLogger("todoapi", "loud", "")

	Expect(err).To(HaveOccurred())
	Expect(err.Error()).To(ContainSubstring("invalid log level"))
}

func TestLokiLogger_LogsLocally(t *testing.T) {
	RegisterTestingT(t)

	core, logs := observer.New(zap.InfoLevel)
	logger := newLokiLogger(zap.New(core), "todoapi", "")

	logger.InfoWithTrace(context.Background(), "todo created", zap.Int("todo_id", 1))

	Expect(logs.Len()).To(Equal(1))

	entry := logs.All()[0]
	Expect(entry.Message).To(Equal("todo created"))
	Expect(entry.ContextMap()).To(HaveKeyWithValue("service", "todoapi"))
	Expect(entry.ContextMap()).To(HaveKeyWithValue("todo_id", int64(1)))
}

func TestLokiLogger_PushesToLoki(t *testing.T) {
	RegisterTestingT(t)

	received := make(chan LokiLogEntry, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, _ := io.ReadAll(r.Body)

		var entry LokiLogEntry
		if err := json.Unmarshal(body, &entry); err == nil && r.URL.Path == "/loki/api/v1/push" {
			received <- entry
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	logger := newLokiLogger(zap.NewNop(), "todoapi", server.URL+"/")

	logger.ErrorWithTrace(context.Background(), "storage down", zap.String("op", "Find"))

	var entry LokiLogEntry
	Eventually(received, 2*time.Second).Should(Receive(&entry))

	Expect(entry.Streams).To(HaveLen(1))
	Expect(entry.Streams[0].Stream).To(HaveKeyWithValue("level", "error"))

	var line map[string]any
	Expect(json.Unmarshal([]byte(entry.Streams[0].Values[0][1]), &line)).To(Succeed())
	Expect(line).To(HaveKeyWithValue("message", "storage down"))
	Expect(line).To(HaveKeyWithValue("op", "Find"))
	Expect(line).To(HaveKeyWithValue("service", "todoapi"))
}

func TestNewLokiLogger_CarriesTraceIDs(t *testing.T) {
	RegisterTestingT(t)

	received := make(chan LokiLogEntry, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var entry LokiLogEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err == nil {
			received <- entry
		}

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	logger, err := NewLokiLogger("todoapi", "debug", server.URL)
	Expect(err).ToNot(HaveOccurred())
	Expect(logger.Logger).ToNot(BeNil())

	spanContext := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x04, 0x05},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanContext)

	logger.WarnWithTrace(ctx, "slow query")

	var entry LokiLogEntry
	Eventually(received, 2*time.Second).Should(Receive(&entry))

	var line map[string]any
	Expect(json.Unmarshal([]byte(entry.Streams[0].Values[0][1]), &line)).To(Succeed())
	Expect(line).To(HaveKeyWithValue("trace_id", spanContext.TraceID().String()))
	Expect(line).To(HaveKeyWithValue("span_id", spanContext.SpanID().String()))
}

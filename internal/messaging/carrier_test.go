package messaging

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestMessageCarrierRoundTrip(t *testing.T) {
	msg := kafka.Message{}
	carrier := newMessageCarrier(&msg)

	if got := carrier.Get("traceparent"); got != "" {
		t.Errorf("Get on empty headers = %q, want empty", got)
	}

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("baggage", "k=v")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("Get = %q", got)
	}

	carrier.Set("traceparent", "00-abc-def-02")
	if len(msg.Headers) != 2 {
		t.Fatalf("headers = %d, want overwrite not append", len(msg.Headers))
	}
	if got := carrier.Get("traceparent"); got != "00-abc-def-02" {
		t.Errorf("Get after overwrite = %q", got)
	}

	keys := carrier.Keys()
	if len(keys) != 2 || keys[0] != "traceparent" || keys[1] != "baggage" {
		t.Errorf("Keys = %v", keys)
	}
}

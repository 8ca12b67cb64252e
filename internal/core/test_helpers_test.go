package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// recvFrame pops the next queued outbound frame and decodes it.
func recvFrame(t *testing.T, client *Client) map[string]any {
	t.Helper()

	select {
	case payload := <-client.Out():
		var frame map[string]any
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("undecodable frame %q: %v", payload, err)
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("expected outbound frame, got none")
		return nil
	}
}

// assertNoFrame asserts the client's outbound queue is empty.
func assertNoFrame(t *testing.T, client *Client, context ...string) {
	t.Helper()

	select {
	case payload := <-client.Out():
		t.Fatalf("unexpected outbound frame: %s (%s)", payload, strings.Join(context, "; "))
	default:
	}
}

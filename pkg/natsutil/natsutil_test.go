package natsutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

type note struct {
	Ticker string `json:"ticker"`
	Count  int    `json:"count"`
}

func TestPublishSubscribe(t *testing.T) {
	nc := startNATS(t)

	ch := make(chan note, 1)
	sub, err := Subscribe(nc, "wire.responses", func(_ context.Context, n note) {
		ch <- n
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "wire.responses", note{Ticker: "000002", Count: 3}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.Ticker != "000002" || got.Count != 3 {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	nc := startNATS(t)

	called := make(chan struct{}, 1)
	sub, err := Subscribe(nc, "wire.bad", func(_ context.Context, n note) {
		called <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	nc.Publish("wire.bad", []byte("{not json"))
	nc.Flush()

	select {
	case <-called:
		t.Fatal("handler ran on malformed payload")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRequestReply(t *testing.T) {
	nc := startNATS(t)

	sub, err := HandleRequest(nc, "wire.queries", func(_ context.Context, q note) note {
		return note{Ticker: q.Ticker, Count: q.Count * 2}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := Request[note, note](ctx, nc, "wire.queries", note{Ticker: "AAPL", Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Ticker != "AAPL" || resp.Count != 10 {
		t.Fatalf("unexpected reply: %+v", resp)
	}
}

func TestRequestNoResponder(t *testing.T) {
	nc := startNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := Request[note, note](ctx, nc, "wire.nobody", note{}); err == nil {
		t.Fatal("expected error without a responder")
	}
}

func TestPublishMarshalError(t *testing.T) {
	nc := startNATS(t)
	if err := Publish(context.Background(), nc, "wire.err", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestRequestBadReply(t *testing.T) {
	nc := startNATS(t)

	sub, err := nc.Subscribe("wire.garbled", func(msg *nats.Msg) {
		msg.Respond([]byte("{broken"))
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Request[note, note](ctx, nc, "wire.garbled", note{}); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestPublishPayloadShape(t *testing.T) {
	nc := startNATS(t)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("wire.raw", ch)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "wire.raw", note{Ticker: "0700.HK", Count: 1}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-ch:
		var n note
		if err := json.Unmarshal(msg.Data, &n); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if n.Ticker != "0700.HK" {
			t.Fatalf("payload = %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
}

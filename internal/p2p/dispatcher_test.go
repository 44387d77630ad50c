package p2p

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ironledger/ironledger/internal/chain"
	"github.com/ironledger/ironledger/internal/wire"
	"github.com/ironledger/ironledger/pkg/types"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Peer) {
	t.Helper()
	engine, err := chain.New(types.Address("genesis-reward-address"), 1700000000)
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	hub := NewHub(uuid.New())
	d := NewDispatcher(hub, engine)
	requester := newBarePeer(hub, uuid.New())
	return d, requester
}

func TestDispatcher_DiscoverNodes_Replies(t *testing.T) {
	d, requester := newTestDispatcher(t)

	d.handle(InboundMessage{From: requester.ID, Env: wire.NewEnvelope(requester.ID, wire.DiscoverNodes())})

	select {
	case env := <-requester.outbound:
		if env.Msg.Type != wire.MsgNodeList {
			t.Errorf("reply type = %v, want MsgNodeList", env.Msg.Type)
		}
	default:
		t.Fatal("expected a reply on the requester's outbound queue")
	}
}

func TestDispatcher_AskDifference_Replies(t *testing.T) {
	d, requester := newTestDispatcher(t)

	d.handle(InboundMessage{From: requester.ID, Env: wire.NewEnvelope(requester.ID, wire.AskDifference(0))})

	select {
	case env := <-requester.outbound:
		if env.Msg.Type != wire.MsgDifference {
			t.Fatalf("reply type = %v, want MsgDifference", env.Msg.Type)
		}
		if env.Msg.Difference != 1 {
			t.Errorf("Difference = %d, want 1 (genesis-only chain vs height 0)", env.Msg.Difference)
		}
	default:
		t.Fatal("expected a reply on the requester's outbound queue")
	}
}

func TestDispatcher_FetchAllBlocks_Replies(t *testing.T) {
	d, requester := newTestDispatcher(t)

	d.handle(InboundMessage{From: requester.ID, Env: wire.NewEnvelope(requester.ID, wire.FetchAllBlocks())})

	select {
	case env := <-requester.outbound:
		if env.Msg.Type != wire.MsgAllBlocks {
			t.Fatalf("reply type = %v, want MsgAllBlocks", env.Msg.Type)
		}
		if len(env.Msg.AllBlocks) != 1 {
			t.Errorf("len(AllBlocks) = %d, want 1 (genesis only)", len(env.Msg.AllBlocks))
		}
	default:
		t.Fatal("expected a reply on the requester's outbound queue")
	}
}

func TestDispatcher_DropsUnsolicitedResponse(t *testing.T) {
	d, requester := newTestDispatcher(t)

	d.handle(InboundMessage{From: requester.ID, Env: wire.NewEnvelope(requester.ID, wire.NodeList(nil))})

	if _, ok := d.hub.Peer(requester.ID); ok {
		t.Error("peer sending an unsolicited response should have been dropped")
	}
}

func TestDispatcher_DropsOwnOrigin(t *testing.T) {
	d, requester := newTestDispatcher(t)

	env := wire.NewEnvelope(d.hub.SelfID, wire.DiscoverNodes())
	d.handle(InboundMessage{From: requester.ID, Env: env})

	select {
	case <-requester.outbound:
		t.Fatal("envelope originating from self should have been dropped, not answered")
	default:
	}
}

func TestDispatcher_DedupesRepeatedEnvelope(t *testing.T) {
	d, requester := newTestDispatcher(t)

	env := wire.NewEnvelope(requester.ID, wire.DiscoverNodes())
	d.handle(InboundMessage{From: requester.ID, Env: env})
	<-requester.outbound // drain the first reply

	d.handle(InboundMessage{From: requester.ID, Env: env})
	select {
	case <-requester.outbound:
		t.Fatal("a repeated envelope id should be dropped, not answered twice")
	case <-time.After(50 * time.Millisecond):
	}
}

package p2p

import (
	"fmt"
	"time"

	"github.com/ironledger/ironledger/internal/chain"
	"github.com/ironledger/ironledger/internal/log"
	"github.com/ironledger/ironledger/internal/wire"
)

// Dispatcher consumes the hub's inbound channel and reacts to each envelope:
// answering requests, admitting submitted blocks and transactions, and
// rebroadcasting newly accepted gossip.
type Dispatcher struct {
	hub   *Hub
	chain *chain.Engine
}

// NewDispatcher builds a dispatcher serving chain over hub.
func NewDispatcher(hub *Hub, chain *chain.Engine) *Dispatcher {
	return &Dispatcher{hub: hub, chain: chain}
}

// Run consumes envelopes until stop is closed.
func (d *Dispatcher) Run(stop <-chan struct{}) {
	for {
		select {
		case msg := <-d.hub.Inbound:
			d.handle(msg)
		case <-stop:
			return
		}
	}
}

func (d *Dispatcher) handle(msg InboundMessage) {
	env := msg.Env

	if env.Origin == d.hub.SelfID {
		return
	}
	if !d.hub.TrackIfNew(env.ID) {
		return
	}

	if env.Msg.Type.IsResponse() {
		// A response we never asked for: the spec has the receiving node
		// close the connection, since there is no pending request this
		// dispatcher loop can correlate a reply with. The hub, not the
		// dispatcher, owns the connection, so this drops the peer there.
		log.Dispatch.Warn().Str("peer", msg.From.String()).
			Str("type", fmt.Sprintf("%d", env.Msg.Type)).
			Msg("unsolicited response, dropping peer")
		d.hub.Drop(msg.From)
		return
	}

	switch env.Msg.Type {
	case wire.MsgDiscoverNodes:
		d.reply(msg.From, wire.NodeList(d.hub.Peers()))

	case wire.MsgAskDifference:
		localHeight := int32(d.chain.Height())
		delta := localHeight - int32(env.Msg.AskDifference)
		d.reply(msg.From, wire.Difference(delta))

	case wire.MsgFetchBlock:
		if b, ok := d.chain.FetchBlock(env.Msg.FetchBlock); ok {
			d.reply(msg.From, wire.NewBlock(b))
		}

	case wire.MsgFetchAllBlocks:
		d.reply(msg.From, wire.AllBlocks(d.chain.AllBlocks()))

	case wire.MsgFetchUTXOs:
		entries := d.chain.FetchUTXOs(env.Msg.FetchUTXOs)
		out := make([]wire.UTXOEntry, len(entries))
		for i, e := range entries {
			out[i] = wire.UTXOEntry{Output: e.Output, Marked: e.Marked}
		}
		d.reply(msg.From, wire.UTXOs(out))

	case wire.MsgFetchTemplate:
		tmpl := d.chain.FetchTemplate(env.Msg.FetchTemplate, uint64(time.Now().Unix()))
		d.reply(msg.From, wire.Template(tmpl))

	case wire.MsgValidateTemplate:
		ok := d.chain.ValidateTemplate(env.Msg.ValidateTemplate)
		d.reply(msg.From, wire.TemplateValidity(ok))

	case wire.MsgSubmitTemplate:
		if err := d.chain.AddBlock(env.Msg.SubmitTemplate); err != nil {
			log.Dispatch.Warn().Err(err).Str("peer", msg.From.String()).Msg("rejected submitted block")
			return
		}
		d.rebroadcast(msg.From, env, wire.NewBlock(env.Msg.SubmitTemplate))

	case wire.MsgSubmitTransaction:
		if _, err := d.chain.AddToMempool(env.Msg.SubmitTransaction, time.Now()); err != nil {
			log.Dispatch.Warn().Err(err).Str("peer", msg.From.String()).Msg("rejected submitted transaction")
			return
		}
		d.rebroadcast(msg.From, env, wire.NewTransaction(env.Msg.SubmitTransaction))

	case wire.MsgNewBlock:
		if err := d.chain.AddBlock(env.Msg.NewBlock); err != nil {
			log.Dispatch.Warn().Err(err).Str("peer", msg.From.String()).Msg("rejected gossiped block")
			return
		}
		d.rebroadcast(msg.From, env, env.Msg)

	case wire.MsgNewTransaction:
		if _, err := d.chain.AddToMempool(env.Msg.NewTransaction, time.Now()); err != nil {
			log.Dispatch.Warn().Err(err).Str("peer", msg.From.String()).Msg("rejected gossiped transaction")
			return
		}
		d.rebroadcast(msg.From, env, env.Msg)

	default:
		log.Dispatch.Warn().Str("peer", msg.From.String()).Msg("unknown message type")
	}
}

// reply sends msg back to from as a fresh envelope. Point-to-point replies
// must not be silently dropped on a congested queue, so this blocks until
// delivery or the peer's disconnection, unlike the best-effort broadcast
// used for gossip.
func (d *Dispatcher) reply(from wire.PeerID, msg wire.Message) {
	if p, ok := d.hub.Peer(from); ok {
		p.SendBlocking(wire.Reply(d.hub.SelfID, msg))
	}
}

// rebroadcast decrements the envelope's TTL and, if it is still above zero,
// forwards it to every peer but the sender, preserving the original envelope
// id so the network-wide dedup set keeps working.
func (d *Dispatcher) rebroadcast(from wire.PeerID, env wire.Envelope, msg wire.Message) {
	if env.TTL <= 1 {
		return
	}
	out := wire.Envelope{ID: env.ID, Origin: d.hub.SelfID, TTL: env.TTL - 1, Msg: msg}
	d.hub.BroadcastExcept(from, out)
}

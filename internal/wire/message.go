// Package wire defines the on-the-wire request/response protocol nodes use
// to gossip transactions and blocks and to bootstrap a chain from peers: the
// Envelope framing (envelope.go) and the Message variants (this file).
package wire

import (
	"github.com/google/uuid"

	"github.com/ironledger/ironledger/pkg/block"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// PeerID identifies a node on the network. Nodes pick their own at startup;
// there is no central allocator.
type PeerID = uuid.UUID

// MessageType tags which field of Message is populated.
type MessageType uint8

const (
	MsgDiscoverNodes MessageType = iota + 1
	MsgNodeList
	MsgAskDifference
	MsgDifference
	MsgFetchBlock
	MsgFetchAllBlocks
	MsgAllBlocks
	MsgFetchUTXOs
	MsgUTXOs
	MsgFetchTemplate
	MsgTemplate
	MsgValidateTemplate
	MsgTemplateValidity
	MsgSubmitTemplate
	MsgSubmitTransaction
	MsgNewBlock
	MsgNewTransaction
)

// UTXOEntry pairs an output with whether the local mempool currently has it
// reserved (marked) by a pending spend, as returned by FetchUTXOs.
type UTXOEntry struct {
	Output tx.Output `cbor:"output"`
	Marked bool      `cbor:"marked"`
}

// Message is the tagged union of every request/response variant in the wire
// protocol. Only the field named by Type is populated; the rest are left at
// their zero value and omitted from the CBOR encoding.
type Message struct {
	Type MessageType `cbor:"type"`

	NodeList []PeerID `cbor:"node_list,omitempty"`

	AskDifference uint32 `cbor:"ask_difference,omitempty"`
	Difference    int32  `cbor:"difference,omitempty"`

	FetchBlock uint64       `cbor:"fetch_block,omitempty"`
	AllBlocks  []*block.Block `cbor:"all_blocks,omitempty"`

	FetchUTXOs types.Address `cbor:"fetch_utxos,omitempty"`
	UTXOs      []UTXOEntry   `cbor:"utxos,omitempty"`

	FetchTemplate types.Address `cbor:"fetch_template,omitempty"`
	Template      *block.Block  `cbor:"template,omitempty"`

	ValidateTemplate *block.Block `cbor:"validate_template,omitempty"`
	TemplateValidity bool         `cbor:"template_validity,omitempty"`

	SubmitTemplate    *block.Block     `cbor:"submit_template,omitempty"`
	SubmitTransaction *tx.Transaction  `cbor:"submit_transaction,omitempty"`

	NewBlock       *block.Block    `cbor:"new_block,omitempty"`
	NewTransaction *tx.Transaction `cbor:"new_transaction,omitempty"`
}

// DiscoverNodes asks a peer to return the peers it knows about.
func DiscoverNodes() Message { return Message{Type: MsgDiscoverNodes} }

// NodeList answers DiscoverNodes with the sender's known peer set.
func NodeList(peers []PeerID) Message { return Message{Type: MsgNodeList, NodeList: peers} }

// AskDifference asks a peer to compare its own height against localHeight.
func AskDifference(localHeight uint32) Message {
	return Message{Type: MsgAskDifference, AskDifference: localHeight}
}

// Difference answers AskDifference with local_height - peer_height.
func Difference(delta int32) Message { return Message{Type: MsgDifference, Difference: delta} }

// FetchBlock requests a single block by height.
func FetchBlock(height uint64) Message { return Message{Type: MsgFetchBlock, FetchBlock: height} }

// FetchAllBlocks requests the sender's entire chain, for bootstrap.
func FetchAllBlocks() Message { return Message{Type: MsgFetchAllBlocks} }

// AllBlocks answers FetchAllBlocks with the full chain in height order.
func AllBlocks(blocks []*block.Block) Message { return Message{Type: MsgAllBlocks, AllBlocks: blocks} }

// FetchUTXOs requests every unspent output assigned to addr, for a wallet
// balance query.
func FetchUTXOs(addr types.Address) Message {
	return Message{Type: MsgFetchUTXOs, FetchUTXOs: addr}
}

// UTXOs answers FetchUTXOs.
func UTXOs(entries []UTXOEntry) Message { return Message{Type: MsgUTXOs, UTXOs: entries} }

// FetchTemplate requests a miner template paying rewardAddr.
func FetchTemplate(rewardAddr types.Address) Message {
	return Message{Type: MsgFetchTemplate, FetchTemplate: rewardAddr}
}

// Template answers FetchTemplate.
func Template(b *block.Block) Message { return Message{Type: MsgTemplate, Template: b} }

// ValidateTemplate asks whether b still builds on the current tip with the
// current target, used by a miner to check a template isn't stale before
// spending time sealing it.
func ValidateTemplate(b *block.Block) Message {
	return Message{Type: MsgValidateTemplate, ValidateTemplate: b}
}

// TemplateValidity answers ValidateTemplate.
func TemplateValidity(ok bool) Message {
	return Message{Type: MsgTemplateValidity, TemplateValidity: ok}
}

// SubmitTemplate offers a freshly mined block for acceptance. Has no direct
// response; the receiving node broadcasts NewBlock on acceptance.
func SubmitTemplate(b *block.Block) Message { return Message{Type: MsgSubmitTemplate, SubmitTemplate: b} }

// SubmitTransaction offers a user transaction for mempool admission. Has no
// direct response; the receiving node broadcasts NewTransaction on
// acceptance.
func SubmitTransaction(t *tx.Transaction) Message {
	return Message{Type: MsgSubmitTransaction, SubmitTransaction: t}
}

// NewBlock gossips a newly accepted block to peers.
func NewBlock(b *block.Block) Message { return Message{Type: MsgNewBlock, NewBlock: b} }

// NewTransaction gossips a newly admitted mempool transaction to peers.
func NewTransaction(t *tx.Transaction) Message {
	return Message{Type: MsgNewTransaction, NewTransaction: t}
}

// IsResponse reports whether t is a response variant, one that is only ever
// sent in answer to a request. A peer that receives one of these without
// having sent the matching request should close the connection.
func (t MessageType) IsResponse() bool {
	switch t {
	case MsgNodeList, MsgDifference, MsgAllBlocks, MsgUTXOs, MsgTemplate, MsgTemplateValidity:
		return true
	default:
		return false
	}
}

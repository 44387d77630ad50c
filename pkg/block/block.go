// Package block defines block types and validation.
package block

import (
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// Block represents a block in the chain.
type Block struct {
	Header       *Header           `json:"header" cbor:"header"`
	Transactions []*tx.Transaction `json:"transactions" cbor:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Hash returns the block header hash.
func (b *Block) Hash() types.Hash {
	if b.Header == nil {
		return types.Hash{}
	}
	return b.Header.Hash()
}

package chain

import (
	"github.com/google/uuid"
	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/pkg/block"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// CreateGenesisBlock builds block 0: prev_block_hash = 0, one coinbase
// paying InitialReward (in satoshis) to rewardAddr. Genesis is not
// proof-of-work checked; its target is set to the maximum (easiest)
// target so AddBlock's generic validation still accepts it. The coinbase
// output uses the nil UUID, so equal arguments always give an identical block.
func CreateGenesisBlock(rewardAddr types.Address, timestamp uint64) *block.Block {
	coinbase := &tx.Transaction{
		Outputs: []tx.Output{{
			Value:    config.InitialReward * 100_000_000,
			UniqueID: uuid.Nil,
			Address:  rewardAddr,
		}},
	}

	root := block.ComputeMerkleRoot([]types.Hash{coinbase.Hash()})
	header := &block.Header{
		Timestamp:     timestamp,
		PrevBlockHash: types.Hash{},
		MerkleRoot:    root,
		Target:        types.MaxTarget,
	}

	return block.NewBlock(header, []*tx.Transaction{coinbase})
}

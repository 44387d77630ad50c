package chain

import "errors"

// Top-level error categories. Handlers match against these with errors.Is;
// the wrapped detail (via fmt.Errorf("%w: ...")) carries the specifics for
// logging.
var (
	ErrInvalidBlock       = errors.New("invalid block")
	ErrInvalidMerkleRoot  = errors.New("invalid merkle root")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

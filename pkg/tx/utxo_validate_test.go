package tx

import (
	"errors"
	"testing"

	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

type stubProvider map[types.Hash]Output

func (s stubProvider) GetOutput(h types.Hash) (Output, bool) {
	out, ok := s[h]
	return out, ok
}

func TestValidateWithUTXOs_Coinbase(t *testing.T) {
	tx := &Transaction{Outputs: []Output{NewOutput(50, testAddress(t))}}
	fee, err := tx.ValidateWithUTXOs(stubProvider{})
	if err != nil {
		t.Fatalf("ValidateWithUTXOs: %v", err)
	}
	if fee != 0 {
		t.Errorf("coinbase fee = %d, want 0", fee)
	}
}

func TestValidateWithUTXOs_Spend(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := key.Address()
	prevOut := NewOutput(100, addr)

	spendTx := signedSpend(t, key, prevOut.Hash(), 60, testAddress(t))
	provider := stubProvider{prevOut.Hash(): prevOut}

	fee, err := spendTx.ValidateWithUTXOs(provider)
	if err != nil {
		t.Fatalf("ValidateWithUTXOs: %v", err)
	}
	if fee != 40 {
		t.Errorf("fee = %d, want 40", fee)
	}
}

func TestValidateWithUTXOs_MissingInput(t *testing.T) {
	key, _ := crypto.GenerateKey()
	spendTx := signedSpend(t, key, types.Hash{42}, 1, testAddress(t))

	if _, err := spendTx.ValidateWithUTXOs(stubProvider{}); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("expected ErrInputNotFound, got %v", err)
	}
}

func TestValidateWithUTXOs_AddressMismatch(t *testing.T) {
	owner, _ := crypto.GenerateKey()
	impostor, _ := crypto.GenerateKey()

	prevOut := NewOutput(10, owner.Address())
	spendTx := signedSpend(t, impostor, prevOut.Hash(), 1, testAddress(t))
	provider := stubProvider{prevOut.Hash(): prevOut}

	if _, err := spendTx.ValidateWithUTXOs(provider); !errors.Is(err, ErrAddressMismatch) {
		t.Errorf("expected ErrAddressMismatch, got %v", err)
	}
}

func TestValidateWithUTXOs_InsufficientFee(t *testing.T) {
	key, _ := crypto.GenerateKey()
	prevOut := NewOutput(10, key.Address())
	spendTx := signedSpend(t, key, prevOut.Hash(), 100, testAddress(t))
	provider := stubProvider{prevOut.Hash(): prevOut}

	if _, err := spendTx.ValidateWithUTXOs(provider); !errors.Is(err, ErrInsufficientFee) {
		t.Errorf("expected ErrInsufficientFee, got %v", err)
	}
}

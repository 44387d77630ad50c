package config

import "testing"

func TestBlockReward_Genesis(t *testing.T) {
	want := InitialReward * 100_000_000
	if got := BlockReward(0); got != want {
		t.Errorf("BlockReward(0) = %d, want %d", got, want)
	}
}

func TestBlockReward_HalvesAtInterval(t *testing.T) {
	full := BlockReward(0)
	half := BlockReward(HalvingInterval)
	if half != full/2 {
		t.Errorf("BlockReward(%d) = %d, want %d", HalvingInterval, half, full/2)
	}

	quarter := BlockReward(2 * HalvingInterval)
	if quarter != full/4 {
		t.Errorf("BlockReward(%d) = %d, want %d", 2*HalvingInterval, quarter, full/4)
	}
}

func TestBlockReward_JustBeforeHalving(t *testing.T) {
	full := BlockReward(0)
	if got := BlockReward(HalvingInterval - 1); got != full {
		t.Errorf("BlockReward(%d) = %d, want %d", HalvingInterval-1, got, full)
	}
}

func TestBlockReward_EventuallyZero(t *testing.T) {
	if got := BlockReward(HalvingInterval * 100); got != 0 {
		t.Errorf("BlockReward after 100 halvings = %d, want 0", got)
	}
}

func TestMinTarget_NotZero(t *testing.T) {
	if MinTarget.IsZero() {
		t.Error("MinTarget should not be zero")
	}
}

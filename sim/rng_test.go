package sim

import (
	"math"
	"math/rand"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same key+name produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		a := rng1.ForStream("root/gen").Float64()
		b := rng2.ForStream("root/gen").Float64()
		if a != b {
			t.Errorf("Value %d: got %v and %v, want identical", i, a, b)
		}
	}
}

func TestPartitionedRNG_StreamIsolation(t *testing.T) {
	// BDD: Drawing from stream A doesn't affect stream B
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForStream("root/a").Float64()
	}
	got := rngA.ForStream("root/b").Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	want := fresh.ForStream("root/b").Float64()
	if got != want {
		t.Errorf("root/b first value = %v, want %v (isolation broken)", got, want)
	}
}

func TestPartitionedRNG_DerivationFormula(t *testing.T) {
	// BDD: stream seed is masterSeed XOR fnv1a64(name)
	rng := NewPartitionedRNG(NewSimulationKey(7))
	direct := rand.New(rand.NewSource(7 ^ fnv1a64("root/gen")))
	for i := 0; i < 5; i++ {
		if got, want := rng.ForStream("root/gen").Int63(), direct.Int63(); got != want {
			t.Errorf("Value %d: stream = %d, direct = %d", i, got, want)
		}
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	// BDD: Same name returns same *rand.Rand instance
	rng := NewPartitionedRNG(NewSimulationKey(42))
	if rng.ForStream("x") != rng.ForStream("x") {
		t.Error("ForStream returned different instances for same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(12345))
	if rng.Key() != SimulationKey(12345) {
		t.Errorf("Key() = %v, want 12345", rng.Key())
	}
}

func TestPartitionedRNG_DifferentSeedsDiffer(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1)).ForStream("root/gen").Int63()
	b := NewPartitionedRNG(NewSimulationKey(2)).ForStream("root/gen").Int63()
	if a == b {
		t.Errorf("seeds 1 and 2 produced the same first value %d", a)
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	// BDD: streams map is empty until ForStream is called
	rng := NewPartitionedRNG(NewSimulationKey(42))
	if len(rng.streams) != 0 {
		t.Errorf("New PartitionedRNG has %d streams, want 0", len(rng.streams))
	}
	rng.ForStream("a")
	rng.ForStream("b")
	rng.ForStream("a")
	if len(rng.streams) != 2 {
		t.Errorf("after 3 calls with 2 names, streams = %d, want 2", len(rng.streams))
	}
}

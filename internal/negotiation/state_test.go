package negotiation

import (
	"sync"
	"testing"
)

func TestStateStoreCreatesFreshState(t *testing.T) {
	store := NewStateStore()
	sess := store.Begin("LD-100")
	defer sess.End()

	state := sess.State()
	if state.Attempts != 0 {
		t.Fatalf("unexpected attempts: got %d want %d", state.Attempts, 0)
	}
	if state.LastAgentOffer != nil {
		t.Fatalf("unexpected last offer: got %v want nil", *state.LastAgentOffer)
	}
}

func TestStateStoreSerializesSameKey(t *testing.T) {
	store := NewStateStore()
	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				sess := store.Begin("LD-100")
				sess.State().Attempts++
				sess.End()
			}
		}()
	}
	wg.Wait()

	sess := store.Begin("LD-100")
	defer sess.End()
	if got := sess.State().Attempts; got != workers*rounds {
		t.Fatalf("lost updates under contention: got %d want %d", got, workers*rounds)
	}
}

func TestStateStoreKeysDoNotInterfere(t *testing.T) {
	store := NewStateStore()

	sessA := store.Begin("LD-100")
	sessA.State().Attempts = 2
	sessA.End()

	sessB := store.Begin("LD-101")
	defer sessB.End()
	if got := sessB.State().Attempts; got != 0 {
		t.Fatalf("state leaked across keys: got %d want %d", got, 0)
	}
}

func TestStateStoreRemoveResetsState(t *testing.T) {
	store := NewStateStore()

	sess := store.Begin("LD-100")
	sess.State().Attempts = 3
	sess.Remove()
	sess.End()

	fresh := store.Begin("LD-100")
	defer fresh.End()
	if got := fresh.State().Attempts; got != 0 {
		t.Fatalf("state survived removal: got %d want %d", got, 0)
	}
}

func TestStateStoreRemoveIsIdempotent(t *testing.T) {
	store := NewStateStore()
	store.Remove("LD-404")
	store.Remove("LD-404")

	sess := store.Begin("LD-100")
	sess.End()
	store.Remove("LD-100")
	store.Remove("LD-100")
	if got := store.Len(); got != 0 {
		t.Fatalf("unexpected live states: got %d want %d", got, 0)
	}
}

func TestStateStoreRemovalDuringContention(t *testing.T) {
	store := NewStateStore()
	const workers = 8

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess := store.Begin("LD-100")
				if sess.State().Attempts >= 3 {
					sess.Remove()
				} else {
					sess.State().Attempts++
				}
				sess.End()
			}
		}()
	}
	wg.Wait()

	sess := store.Begin("LD-100")
	defer sess.End()
	if got := sess.State().Attempts; got < 0 || got > 3 {
		t.Fatalf("attempts escaped bounds under contention: got %d", got)
	}
}

package signaling

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_OfferOverwrite(t *testing.T) {
	s := NewStore()

	s.PutOffer("target", "offer1", "caller1")
	s.PutOffer("target", "offer2", "caller2")

	offer, ok := s.GetOffer("target")
	if !ok {
		t.Fatal("GetOffer() = not found, want offer")
	}
	if offer.SDP != "offer2" || offer.Caller != "caller2" {
		t.Errorf("GetOffer() = %+v, want offer2/caller2", offer)
	}
}

func TestStore_PutOfferClearsAnswerAndIce(t *testing.T) {
	s := NewStore()

	s.PutOffer("target", "offer1", "caller1")
	if !s.PutAnswer("target", "answer1") {
		t.Fatal("PutAnswer() failed with an offer present")
	}
	s.AddIceCandidate("target", "candidate1")

	// A new offer restarts the negotiation from scratch
	s.PutOffer("target", "offer2", "caller2")

	if answer, ok := s.GetAnswer("target"); ok {
		t.Errorf("GetAnswer() = %q, want cleared", answer)
	}
	if ice := s.GetIceCandidates("target"); len(ice) != 0 {
		t.Errorf("GetIceCandidates() = %v, want empty", ice)
	}
}

func TestStore_AnswerRequiresOffer(t *testing.T) {
	s := NewStore()

	if s.PutAnswer("nobody", "answer") {
		t.Error("PutAnswer() succeeded without an offer entry")
	}

	s.PutOffer("peer", "offer", "caller")
	if !s.PutAnswer("peer", "answer") {
		t.Fatal("PutAnswer() failed with an offer present")
	}

	answer, ok := s.GetAnswer("peer")
	if !ok || answer != "answer" {
		t.Errorf("GetAnswer() = %q/%t, want answer/true", answer, ok)
	}
}

func TestStore_NotFoundIsNormal(t *testing.T) {
	s := NewStore()

	if _, ok := s.GetOffer("early"); ok {
		t.Error("GetOffer() on empty store returned an offer")
	}
	if _, ok := s.GetAnswer("early"); ok {
		t.Error("GetAnswer() on empty store returned an answer")
	}
	if ice := s.GetIceCandidates("early"); len(ice) != 0 {
		t.Errorf("GetIceCandidates() = %v, want empty", ice)
	}
}

func TestStore_IceQueueGrows(t *testing.T) {
	s := NewStore()

	// Auto-creates the queue without an offer
	s.AddIceCandidate("peer", "c1")
	s.AddIceCandidate("peer", "c2")

	first := s.GetIceCandidates("peer")
	if len(first) != 2 {
		t.Fatalf("GetIceCandidates() = %v, want 2 entries", first)
	}

	// The queue is not drained by reads
	s.AddIceCandidate("peer", "c3")
	second := s.GetIceCandidates("peer")
	if len(second) != 3 {
		t.Fatalf("repeat GetIceCandidates() = %v, want 3 entries", second)
	}
	for i, want := range []string{"c1", "c2", "c3"} {
		if second[i] != want {
			t.Errorf("candidate[%d] = %q, want %q", i, second[i], want)
		}
	}

	// Returned slice is a copy; mutating it must not corrupt the queue
	second[0] = "mutated"
	if got := s.GetIceCandidates("peer")[0]; got != "c1" {
		t.Errorf("queue corrupted by caller mutation: %q", got)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			peer := fmt.Sprintf("peer%d", n%4)
			s.PutOffer(peer, "offer", "caller")
			s.GetOffer(peer)
			s.PutAnswer(peer, "answer")
			s.GetAnswer(peer)
			s.AddIceCandidate(peer, "candidate")
			s.GetIceCandidates(peer)
		}(i)
	}
	wg.Wait()
}

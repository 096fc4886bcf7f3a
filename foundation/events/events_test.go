package events_test

import (
	"testing"

	"github.com/aurumchain/aurum/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to deliver events to subscribers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling two subscribers.", testID)
		{
			evts := events.New()

			idA, chA := evts.Subscribe()
			idB, chB := evts.Subscribe()

			if idA == idB {
				t.Fatalf("\t%s\tTest %d:\tShould get unique subscriber ids.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get unique subscriber ids.", success, testID)

			evts.Emit(events.MiningStarted, "blk[1]")

			for _, ch := range []chan events.Event{chA, chB} {
				ev := <-ch
				if ev.Kind != events.MiningStarted || ev.Data != "blk[1]" {
					t.Logf("\t\tTest %d:\tgot: %v", testID, ev)
					t.Fatalf("\t%s\tTest %d:\tShould receive the emitted event.", failed, testID)
				}
				if ev.Time.IsZero() {
					t.Fatalf("\t%s\tTest %d:\tShould stamp the event time.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould receive the emitted event.", success, testID)

			if err := evts.Release(idA); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a subscriber: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to release a subscriber.", success, testID)

			if _, open := <-chA; open {
				t.Fatalf("\t%s\tTest %d:\tShould close the released channel.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close the released channel.", success, testID)

			if err := evts.Release(idA); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release an unknown subscriber.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not release an unknown subscriber.", success, testID)

			evts.Shutdown()
			if _, open := <-chB; open || evts.Len() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould close every channel on shutdown.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close every channel on shutdown.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a subscriber is not reading.", testID)
		{
			evts := events.New()
			_, ch := evts.Subscribe()

			for i := 0; i < 500; i++ {
				evts.Emit(events.TransactionReceived, i)
			}

			if len(ch) != cap(ch) {
				t.Logf("\t\tTest %d:\tgot: %d", testID, len(ch))
				t.Logf("\t\tTest %d:\texp: %d", testID, cap(ch))
				t.Fatalf("\t%s\tTest %d:\tShould drop events once the buffer is full.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drop events once the buffer is full.", success, testID)

			if ev := <-ch; ev.Data != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the oldest buffered events.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the oldest buffered events.", success, testID)
		}
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/iliyamo/sport-event-booking/internal/model"
)

type fakeNotificationWriter struct {
	created []model.Notification
	failFor map[uint64]error
}

func (f *fakeNotificationWriter) Create(_ context.Context, n *model.Notification) error {
	if err, ok := f.failFor[n.RecipientID]; ok {
		return err
	}
	f.created = append(f.created, *n)
	return nil
}

func lifecyclePayload(t *testing.T, ev EventLifecycleEvent) []byte {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleMessageFansOutToAllRecipients(t *testing.T) {
	w := &fakeNotificationWriter{}
	body := lifecyclePayload(t, EventLifecycleEvent{
		Kind:         LifecycleCancelled,
		EventID:      7,
		EventName:    "Tournoi de badminton",
		ActorID:      1,
		RecipientIDs: []uint64{2, 3, 4},
	})

	if err := handleMessage(body, w, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(w.created) != 3 {
		t.Fatalf("created %d notifications, want 3", len(w.created))
	}
	for i, want := range []uint64{2, 3, 4} {
		if w.created[i].RecipientID != want {
			t.Fatalf("recipient[%d] = %d, want %d", i, w.created[i].RecipientID, want)
		}
		if w.created[i].EventID != 7 || w.created[i].SourceID != 1 {
			t.Fatalf("notification[%d] = %+v, want event 7 from actor 1", i, w.created[i])
		}
	}
}

func TestHandleMessageSkipsActor(t *testing.T) {
	w := &fakeNotificationWriter{}
	body := lifecyclePayload(t, EventLifecycleEvent{
		Kind:         LifecycleUpdated,
		EventID:      7,
		EventName:    "Tournoi de badminton",
		ActorID:      2,
		RecipientIDs: []uint64{2, 3},
	})

	if err := handleMessage(body, w, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(w.created) != 1 || w.created[0].RecipientID != 3 {
		t.Fatalf("created = %+v, want a single notification for recipient 3", w.created)
	}
}

func TestHandleMessageContinuesPastFailedInsert(t *testing.T) {
	w := &fakeNotificationWriter{failFor: map[uint64]error{3: errors.New("connection reset")}}
	body := lifecyclePayload(t, EventLifecycleEvent{
		Kind:         LifecycleApproved,
		EventID:      9,
		EventName:    "Course solidaire",
		ActorID:      1,
		RecipientIDs: []uint64{2, 3, 4, 5},
	})

	// One bad insert must not cost the remaining recipients their rows,
	// and the message is still acked (nil return) since the written rows
	// would duplicate on redelivery.
	if err := handleMessage(body, w, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	got := make([]uint64, 0, len(w.created))
	for _, n := range w.created {
		got = append(got, n.RecipientID)
	}
	want := []uint64{2, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("recipients written = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipients written = %v, want %v", got, want)
		}
	}
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	w := &fakeNotificationWriter{}
	if err := handleMessage([]byte("{not json"), w, zap.NewNop().Sugar()); err == nil {
		t.Fatal("handleMessage accepted a malformed payload")
	}
	if len(w.created) != 0 {
		t.Fatalf("created %d notifications from a malformed payload", len(w.created))
	}
}

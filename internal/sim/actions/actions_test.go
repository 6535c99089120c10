package actions

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/signalsfoundry/world-simulator/model"
)

func TestMovementJSONUsesSeconds(t *testing.T) {
	m := Movement{ID: 4, Speed: 1, Bearing: 0.5, Duration: 1500 * time.Millisecond}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["duration"] != 1.5 {
		t.Fatalf("duration = %v, want 1.5", got["duration"])
	}
	if got["actor_id"] != 4.0 {
		t.Fatalf("actor_id = %v, want 4", got["actor_id"])
	}
}

func TestRecipients(t *testing.T) {
	cases := []struct {
		action Action
		want   []model.EntityID
	}{
		{Configuration{HeroID: 3}, []model.EntityID{3}},
		{StatUpdate{ID: 5}, []model.EntityID{5}},
		{UpdateInventory{Owner: 6}, []model.EntityID{6}},
		{Movement{ID: 7}, nil},
		{DeleteActors{IDs: []model.EntityID{1}}, nil},
	}
	for _, tc := range cases {
		got := Recipients(tc.action)
		if len(got) != len(tc.want) {
			t.Fatalf("Recipients(%s) = %v, want %v", tc.action.Kind(), got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("Recipients(%s) = %v, want %v", tc.action.Kind(), got, tc.want)
			}
		}
	}
}

func TestDamageJSONUsesNames(t *testing.T) {
	b, err := json.Marshal(Damage{Dealer: 1, Receiver: 2, Variant: model.DamageChop, Hand: model.HandRight})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"dealer_id":1,"receiver_id":2,"variant":"chop","hand":"RIGHT"}`
	if string(b) != want {
		t.Fatalf("Marshal = %s, want %s", b, want)
	}
}

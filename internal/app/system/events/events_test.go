package events

import "testing"

func TestBus_PublishInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(func(e Event) { got = append(got, "a:"+e.ID) })
	b.Subscribe(func(e Event) { got = append(got, "b:"+string(e.Kind)) })

	b.Publish(Event{Kind: ProjectChanged, ID: "p1"})

	if len(got) != 2 || got[0] != "a:p1" || got[1] != "b:project_changed" {
		t.Errorf("deliveries = %v", got)
	}
}

func TestBus_NilSafe(t *testing.T) {
	var b *Bus
	b.Subscribe(func(Event) { t.Error("nil bus must not deliver") })
	b.Publish(Event{Kind: InstanceChanged})

	NewBus().Subscribe(nil)
}

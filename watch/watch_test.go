package watch

import "testing"

func TestSubscribeReceivesCurrentValue(t *testing.T) {
	v := NewValue[int]()
	v.Publish(7)

	var got []int
	cancel := v.Subscribe(func(x int) { got = append(got, x) })
	defer cancel()

	if len(got) != 1 || got[0] != 7 {
		t.Errorf("Expected immediate delivery of current value 7, got %v", got)
	}
}

func TestSubscribeBeforeFirstPublish(t *testing.T) {
	v := NewValue[string]()

	var got []string
	cancel := v.Subscribe(func(x string) { got = append(got, x) })
	defer cancel()

	if len(got) != 0 {
		t.Errorf("Expected no delivery before the first publish, got %v", got)
	}

	v.Publish("a")
	v.Publish("b")

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected deliveries [a b], got %v", got)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	v := NewValue[int]()

	var got []int
	cancel := v.Subscribe(func(x int) { got = append(got, x) })

	v.Publish(1)
	cancel()
	cancel() // idempotent
	v.Publish(2)

	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected only the pre-cancel publish, got %v", got)
	}
}

func TestGet(t *testing.T) {
	v := NewValue[int]()

	if _, ok := v.Get(); ok {
		t.Errorf("Expected no current value before the first publish")
	}

	v.Publish(3)
	if cur, ok := v.Get(); !ok || cur != 3 {
		t.Errorf("Expected current value 3, got %v (set=%v)", cur, ok)
	}
}

func TestResetDropsSubscribersAndValue(t *testing.T) {
	v := NewValue[int]()
	var got []int
	v.Subscribe(func(x int) { got = append(got, x) })

	v.Publish(1)
	v.Reset()

	if _, ok := v.Get(); ok {
		t.Errorf("Expected no current value after reset")
	}

	v.Publish(2)
	if len(got) != 1 {
		t.Errorf("Expected stale subscriber to receive nothing after reset, got %v", got)
	}
}

package conversation

import (
	"testing"
	"time"
)

// fixedClock returns successive instants one minute apart.
func fixedClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(time.Minute)
		return t
	}
}

func TestAppendOrderAndTimestamps(t *testing.T) {
	log := NewLog()
	log.now = fixedClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	log.AppendText("hi")
	log.AppendImage("content://photo/1")
	log.AppendGif("content://gif/1")

	msgs := log.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}

	text, ok := msgs[0].(Text)
	if !ok || text.Content != "hi" {
		t.Errorf("Expected first message Text(%q), got %#v", "hi", msgs[0])
	}
	img, ok := msgs[1].(Image)
	if !ok || img.Ref != "content://photo/1" {
		t.Errorf("Expected second message Image, got %#v", msgs[1])
	}
	gif, ok := msgs[2].(Gif)
	if !ok || gif.Ref != "content://gif/1" {
		t.Errorf("Expected third message Gif, got %#v", msgs[2])
	}

	wantTimes := []string{"10:00 AM", "10:01 AM", "10:02 AM"}
	for i, msg := range msgs {
		st := msg.stamp()
		if !st.FromLocal {
			t.Errorf("Message %d: expected local authorship", i)
		}
		if st.Timestamp != wantTimes[i] {
			t.Errorf("Message %d: expected timestamp %q, got %q", i, wantTimes[i], st.Timestamp)
		}
		if st.ID == "" {
			t.Errorf("Message %d: expected a non-empty ID", i)
		}
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	log := NewLog()

	for i := 0; i < 20; i++ {
		switch i % 3 {
		case 0:
			log.AppendText("x")
		case 1:
			log.AppendImage("ref")
		case 2:
			log.AppendGif("ref")
		}
	}

	var prev time.Time
	for i, msg := range log.Messages() {
		ts, err := time.Parse(TimeFormat, msg.stamp().Timestamp)
		if err != nil {
			t.Fatalf("Message %d: unparseable timestamp %q: %v", i, msg.stamp().Timestamp, err)
		}
		if ts.Before(prev) {
			t.Errorf("Message %d: timestamp %v went backwards from %v", i, ts, prev)
		}
		prev = ts
	}
}

func TestSeedPrecedesAppends(t *testing.T) {
	seed := []Message{
		Text{Stamp: Stamp{ID: "s1", Timestamp: "10:00 AM"}, Content: "What is your favorite programming language?"},
		Text{Stamp: Stamp{ID: "s2", FromLocal: true, Timestamp: "10:02 AM"}, Content: "Guess what?"},
	}
	log := NewLog(seed...)

	log.AppendText("JavaScript")

	msgs := log.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].stamp().ID != "s1" || msgs[1].stamp().ID != "s2" {
		t.Errorf("Expected seed messages to keep their positions")
	}
	if got := msgs[2].(Text).Content; got != "JavaScript" {
		t.Errorf("Expected appended message last, got %q", got)
	}
}

func TestMessagesReturnsSnapshot(t *testing.T) {
	log := NewLog()
	log.AppendText("a")

	snapshot := log.Messages()
	log.AppendText("b")

	if len(snapshot) != 1 {
		t.Errorf("Expected snapshot to be unaffected by later appends, got %d messages", len(snapshot))
	}
	if log.Len() != 2 {
		t.Errorf("Expected log length 2, got %d", log.Len())
	}
}

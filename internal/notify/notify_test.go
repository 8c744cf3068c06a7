package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/napphq/napp/pkg/types"
)

func TestEventWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	w := NewEventWriter(dir)

	if err := w.Notify(TypeEventCreated, 42); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "events"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 event file, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".event" {
		t.Errorf("expected .event extension, got %s", entries[0].Name())
	}
}

func TestEventWatcherReceivesNotification(t *testing.T) {
	dir := t.TempDir()

	type msg struct {
		notifType string
		eventID   int64
	}
	received := make(chan msg, 1)

	watcher := NewEventWatcher(dir, func(notifType string, eventID int64) {
		received <- msg{notifType, eventID}
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Give fsnotify a moment to register
	time.Sleep(50 * time.Millisecond)

	writer := NewEventWriter(dir)
	writer.EventCreated(types.Event{ID: 7, Name: "budget vote"})

	select {
	case m := <-received:
		if m.notifType != TypeEventCreated {
			t.Errorf("expected %s, got %s", TypeEventCreated, m.notifType)
		}
		if m.eventID != 7 {
			t.Errorf("expected event id 7, got %d", m.eventID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for notification")
	}
}

func TestEventWatcherDrainsExisting(t *testing.T) {
	dir := t.TempDir()

	// Write notifications BEFORE starting watcher
	writer := NewEventWriter(dir)
	writer.EventCreated(types.Event{ID: 1})
	writer.EventUpdated(types.Event{ID: 2})

	received := make(chan int64, 10)
	watcher := NewEventWatcher(dir, func(notifType string, eventID int64) {
		received <- eventID
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Drain should have processed both files synchronously during Start
	time.Sleep(100 * time.Millisecond)

	if len(received) != 2 {
		t.Fatalf("expected 2 drained notifications, got %d", len(received))
	}
}

func TestNotificationTypeRoundTrip(t *testing.T) {
	for _, notifType := range []string{TypeEventCreated, TypeEventUpdated} {
		t.Run(notifType, func(t *testing.T) {
			dir := t.TempDir()

			received := make(chan string, 1)
			watcher := NewEventWatcher(dir, func(gotType string, eventID int64) {
				received <- gotType
			})
			if err := watcher.Start(); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			defer watcher.Stop()

			time.Sleep(50 * time.Millisecond)

			writer := NewEventWriter(dir)
			if err := writer.Notify(notifType, 9); err != nil {
				t.Fatalf("Notify failed: %v", err)
			}

			select {
			case got := <-received:
				if got != notifType {
					t.Errorf("expected %s, got %s", notifType, got)
				}
			case <-time.After(3 * time.Second):
				t.Fatal("timeout waiting for notification")
			}
		})
	}
}

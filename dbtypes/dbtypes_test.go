package dbtypes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewProfileDefaults(t *testing.T) {
	got := NewProfile("u1", "Alice", "a@b.com").Fields()

	want := map[string]interface{}{
		"uid":                         "u1",
		"displayName":                 "Alice",
		"email":                       "a@b.com",
		"bio":                         "",
		"location":                    "",
		"profilePictureUrl":           "",
		"isPushNotificationOn":        true,
		"isTwoFactorAuthenticationOn": false,
		"isDarkModeOn":                false,
		"isOnline":                    false,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Registration record differs (-want +got):\n%s", diff)
	}
}

func TestProfileFromMapDefaults(t *testing.T) {
	// A record provisioned by an older client: most fields missing, one
	// mistyped.
	got := ProfileFromMap(map[string]interface{}{
		"uid":         "u2",
		"displayName": "Bob",
		"isOnline":    "yes",
	})

	want := &Profile{
		UID:                "u2",
		DisplayName:        "Bob",
		PushNotificationOn: true,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decoded profile differs (-want +got):\n%s", diff)
	}
}

func TestProfileFieldsRoundTrip(t *testing.T) {
	want := &Profile{
		UID:                       "u3",
		DisplayName:               "Carol",
		Email:                     "c@d.com",
		Bio:                       "hi",
		Location:                  "Oslo",
		ProfilePictureURL:         "https://example.com/c.jpg",
		PushNotificationOn:        false,
		TwoFactorAuthenticationOn: true,
		DarkModeOn:                true,
		Online:                    true,
	}

	got := ProfileFromMap(want.Fields())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Round-tripped profile differs (-want +got):\n%s", diff)
	}
}

func TestNotificationFromMap(t *testing.T) {
	got := NotificationFromMap(map[string]interface{}{
		"uid":         "u1",
		"timestamp":   "January 02, 2006 03:04PM",
		"event":       "Account Security",
		"description": "Your account password was changed.",
	})

	want := &Notification{
		UID:         "u1",
		Timestamp:   "January 02, 2006 03:04PM",
		Event:       "Account Security",
		Description: "Your account password was changed.",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decoded notification differs (-want +got):\n%s", diff)
	}
}

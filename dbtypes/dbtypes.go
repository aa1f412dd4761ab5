// Package dbtypes holds the Firestore document shapes shared between the
// state stores.
package dbtypes

// Profile represents a single account's record in the "users" collection.
//
// Every field written at registration is present on every document; readers
// still decode defensively because federated sign-in may have provisioned
// the record with a different client version.
type Profile struct {
	UID               string `firestore:"uid"`
	DisplayName       string `firestore:"displayName"`
	Email             string `firestore:"email"`
	Bio               string `firestore:"bio"`
	Location          string `firestore:"location"`
	ProfilePictureURL string `firestore:"profilePictureUrl"`

	PushNotificationOn        bool `firestore:"isPushNotificationOn"`
	TwoFactorAuthenticationOn bool `firestore:"isTwoFactorAuthenticationOn"`
	DarkModeOn                bool `firestore:"isDarkModeOn"`
	Online                    bool `firestore:"isOnline"`
}

// Notification is one entry in the per-user "notifications" event log.
// Entries are written by the session store on password events and are
// read-only everywhere else.
type Notification struct {
	UID         string `firestore:"uid"`
	Timestamp   string `firestore:"timestamp"`
	Event       string `firestore:"event"`
	Description string `firestore:"description"`
}

// NewProfile returns the record written for a fresh registration.  The
// boolean defaults (push on, 2FA off, dark mode off, offline) are the
// contract every reader's fallback values must match.
func NewProfile(uid, displayName, email string) *Profile {
	return &Profile{
		UID:                uid,
		DisplayName:        displayName,
		Email:              email,
		PushNotificationOn: true,
	}
}

// Fields flattens the profile into the field map used for document writes.
func (p *Profile) Fields() map[string]interface{} {
	return map[string]interface{}{
		"uid":                         p.UID,
		"displayName":                 p.DisplayName,
		"email":                       p.Email,
		"bio":                         p.Bio,
		"location":                    p.Location,
		"profilePictureUrl":           p.ProfilePictureURL,
		"isPushNotificationOn":        p.PushNotificationOn,
		"isTwoFactorAuthenticationOn": p.TwoFactorAuthenticationOn,
		"isDarkModeOn":                p.DarkModeOn,
		"isOnline":                    p.Online,
	}
}

// ProfileFromMap decodes a raw document, substituting the registration
// defaults for any missing or mistyped field.
func ProfileFromMap(data map[string]interface{}) *Profile {
	return &Profile{
		UID:                       stringField(data, "uid", ""),
		DisplayName:               stringField(data, "displayName", ""),
		Email:                     stringField(data, "email", ""),
		Bio:                       stringField(data, "bio", ""),
		Location:                  stringField(data, "location", ""),
		ProfilePictureURL:         stringField(data, "profilePictureUrl", ""),
		PushNotificationOn:        boolField(data, "isPushNotificationOn", true),
		TwoFactorAuthenticationOn: boolField(data, "isTwoFactorAuthenticationOn", false),
		DarkModeOn:                boolField(data, "isDarkModeOn", false),
		Online:                    boolField(data, "isOnline", false),
	}
}

// NotificationFromMap decodes a raw notification document.
func NotificationFromMap(data map[string]interface{}) *Notification {
	return &Notification{
		UID:         stringField(data, "uid", ""),
		Timestamp:   stringField(data, "timestamp", ""),
		Event:       stringField(data, "event", ""),
		Description: stringField(data, "description", ""),
	}
}

func stringField(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return fallback
}

func boolField(data map[string]interface{}, key string, fallback bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return fallback
}

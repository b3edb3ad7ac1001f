package notifications

import (
	"context"
	"testing"
)

func TestDefaultPreferenceAllowsEverything(t *testing.T) {
	p := DefaultPreference()
	for _, typ := range Types {
		if !p.Allows(typ) {
			t.Fatalf("expected %s enabled by default", typ)
		}
	}
}

func TestMasterSwitchOverridesTypeFlags(t *testing.T) {
	p := DefaultPreference()
	p.EmailEnabled = false
	for _, typ := range Types {
		if p.Allows(typ) {
			t.Fatalf("expected %s disabled by master switch", typ)
		}
	}
}

func TestUnknownTypeNotAllowed(t *testing.T) {
	if DefaultPreference().Allows(Type("weekly_digest")) {
		t.Fatalf("expected unknown type to be refused")
	}
	if Type("weekly_digest").Valid() {
		t.Fatalf("expected unknown type to be invalid")
	}
}

func TestUpdatePreferenceMergesOverDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	off := false

	pref, err := svc.UpdatePreference(context.Background(), "u1", PreferencePatch{AdminReleased: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if pref.AdminReleased || !pref.EmailEnabled || !pref.AssessmentSubmitted {
		t.Fatalf("unexpected merge result: %+v", pref)
	}

	pref, err = svc.UpdatePreference(context.Background(), "u1", PreferencePatch{EmailEnabled: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if pref.EmailEnabled || pref.AdminReleased {
		t.Fatalf("expected earlier patch kept, got %+v", pref)
	}

	enabled, err := svc.IsNotificationEnabled(context.Background(), "u1", TypeAssessmentSubmitted)
	if err != nil {
		t.Fatalf("enabled: %v", err)
	}
	if enabled {
		t.Fatalf("expected master switch to disable")
	}
}

func TestPreferenceWithoutRowIsDefault(t *testing.T) {
	svc := NewService(newFakeStore())
	pref, err := svc.Preference(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("preference: %v", err)
	}
	if pref != DefaultPreference() {
		t.Fatalf("expected defaults, got %+v", pref)
	}
}

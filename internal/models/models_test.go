package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestSession_Fields(t *testing.T) {
	typ := reflect.TypeOf(Session{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "Title", "size:200")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Description", "size:1000")
	assertGormTag(t, typ, "Status", "default:draft")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "OwnerID", "index")
	assertGormTag(t, typ, "Version", "not null")
}

func TestSession_ReservedSharingFieldsNullable(t *testing.T) {
	typ := reflect.TypeOf(Session{})
	for _, name := range []string{"TeamID", "Visibility"} {
		f, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("Session.%s: field not found", name)
		}
		if f.Type.Kind() != reflect.Pointer {
			t.Errorf("Session.%s should be nullable (pointer), got %s", name, f.Type)
		}
	}
}

func TestActivityRecord_Fields(t *testing.T) {
	typ := reflect.TypeOf(ActivityRecord{})

	assertGormTag(t, typ, "ID", "autoIncrement")
	assertGormTag(t, typ, "SessionID", "index")
	assertGormTag(t, typ, "Kind", "index")
	assertGormTag(t, typ, "Actor", "not null")
	assertGormTag(t, typ, "Details", "type:text")
}

func TestStatusHistoryEntry_Fields(t *testing.T) {
	typ := reflect.TypeOf(StatusHistoryEntry{})

	assertGormTag(t, typ, "SessionID", "index")
	assertGormTag(t, typ, "FromStatus", "not null")
	assertGormTag(t, typ, "ToStatus", "not null")
	assertGormTag(t, typ, "Classification", "not null")
}

func TestArchiveRecord_Fields(t *testing.T) {
	typ := reflect.TypeOf(ArchiveRecord{})

	assertGormTag(t, typ, "SessionID", "index")
	assertGormTag(t, typ, "ArchivedBy", "not null")

	f, ok := typ.FieldByName("UnarchivedAt")
	if !ok {
		t.Fatal("ArchiveRecord.UnarchivedAt: field not found")
	}
	if f.Type.Kind() != reflect.Pointer {
		t.Errorf("ArchiveRecord.UnarchivedAt should be nullable (pointer), got %s", f.Type)
	}
}

func TestActivityKinds_Distinct(t *testing.T) {
	kinds := []string{
		ActivityCreated,
		ActivityModified,
		ActivityStatusChanged,
		ActivityComment,
		ActivityArchived,
		ActivityUnarchived,
		ActivityError,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		if seen[k] {
			t.Errorf("duplicate activity kind %q", k)
		}
		seen[k] = true
	}
}

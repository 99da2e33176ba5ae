package domain

import (
	"reflect"
	"strings"
	"testing"
)

func TestDomainRecordModelTagsAndDefaults(t *testing.T) {
	typ := reflect.TypeOf(DomainRecord{})

	hostnameID, ok := typ.FieldByName("EdgeHostnameID")
	if !ok {
		t.Fatal("missing DomainRecord.EdgeHostnameID field")
	}
	if got := hostnameID.Tag.Get("json"); got != "edge_hostname_id" {
		t.Fatalf("EdgeHostnameID json tag mismatch: %q", got)
	}
	if !strings.Contains(hostnameID.Tag.Get("gorm"), "uniqueIndex") {
		t.Fatalf("EdgeHostnameID gorm tag missing uniqueIndex: %q", hostnameID.Tag.Get("gorm"))
	}

	lifecycle, ok := typ.FieldByName("LifecycleStatus")
	if !ok {
		t.Fatal("missing DomainRecord.LifecycleStatus field")
	}
	if !strings.Contains(lifecycle.Tag.Get("gorm"), "default:active") {
		t.Fatalf("LifecycleStatus gorm tag missing default:active: %q", lifecycle.Tag.Get("gorm"))
	}

	for _, name := range []string{"VerificationStatus", "SSLStatus"} {
		f, ok := typ.FieldByName(name)
		if !ok {
			t.Fatalf("missing DomainRecord.%s field", name)
		}
		if !strings.Contains(f.Tag.Get("gorm"), "default:pending") {
			t.Fatalf("%s gorm tag missing default:pending: %q", name, f.Tag.Get("gorm"))
		}
	}
}

func TestRoutableRequiresBothStatusesActive(t *testing.T) {
	cases := []struct {
		name         string
		verification string
		ssl          string
		lifecycle    string
		want         bool
	}{
		{"both active", HostnameStatusActive, SSLStatusActive, LifecycleActive, true},
		{"both pending", HostnameStatusPending, SSLStatusPending, LifecycleActive, false},
		{"verification only", HostnameStatusActive, SSLStatusPending, LifecycleActive, false},
		{"ssl only", HostnameStatusPending, SSLStatusActive, LifecycleActive, false},
		{"ssl pending validation", HostnameStatusActive, SSLStatusPendingValidation, LifecycleActive, false},
		{"deleted record", HostnameStatusActive, SSLStatusActive, LifecycleDeleted, false},
	}
	for _, tc := range cases {
		rec := DomainRecord{
			VerificationStatus: tc.verification,
			SSLStatus:          tc.ssl,
			LifecycleStatus:    tc.lifecycle,
		}
		if got := rec.Routable(); got != tc.want {
			t.Fatalf("%s: Routable()=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestDeletedReflectsLifecycle(t *testing.T) {
	rec := DomainRecord{LifecycleStatus: LifecycleActive}
	if rec.Deleted() {
		t.Fatal("active record reported deleted")
	}
	rec.LifecycleStatus = LifecycleDeleted
	if !rec.Deleted() {
		t.Fatal("deleted record not reported deleted")
	}
}

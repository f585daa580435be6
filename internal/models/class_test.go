package models

import "testing"

func TestRosterDecoding(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []string
	}{
		{name: "nil column", raw: nil, want: []string{}},
		{name: "empty array", raw: []byte(`[]`), want: []string{}},
		{name: "plain array", raw: []byte(`["a@x.test","b@x.test"]`), want: []string{"a@x.test", "b@x.test"}},
		{name: "double encoded", raw: []byte(`"[\"a@x.test\"]"`), want: []string{"a@x.test"}},
		{name: "garbage", raw: []byte(`{"oops":`), want: []string{}},
		{name: "wrong shape", raw: []byte(`{"a":1}`), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := &ClassSession{RegisteredUsers: tt.raw}
			got := class.Roster()
			if len(got) != len(tt.want) {
				t.Fatalf("Roster() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Roster()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSetRosterRoundTrip(t *testing.T) {
	class := &ClassSession{}
	class.SetRoster([]string{"a@x.test"})
	if got := class.Roster(); len(got) != 1 || got[0] != "a@x.test" {
		t.Fatalf("round trip = %v, want [a@x.test]", got)
	}

	class.SetRoster(nil)
	if got := class.Roster(); len(got) != 0 {
		t.Fatalf("nil roster = %v, want empty", got)
	}
	if string(class.RegisteredUsers) != "[]" {
		t.Fatalf("stored column = %s, want []", class.RegisteredUsers)
	}
}

func TestUnlimited(t *testing.T) {
	if !(&ClassSession{MaxParticipants: UnlimitedParticipants}).Unlimited() {
		t.Error("999 must mean unlimited capacity")
	}
	if (&ClassSession{MaxParticipants: 998}).Unlimited() {
		t.Error("998 is a real capacity")
	}
}

func TestUserRoles(t *testing.T) {
	user := &User{}
	if user.HasRole(RoleAdmin) {
		t.Error("empty roles column must decode to no roles")
	}

	user.SetRoles([]string{"researcher", RoleAdmin})
	if !user.HasRole(RoleAdmin) {
		t.Error("HasRole(admin) = false after SetRoles")
	}
	if user.AdminLevel() != 0 {
		t.Error("role without permission row must not grant a level")
	}

	user.AdminPermission = &AdminPermission{UserID: 1, AdminLevel: 2}
	if user.AdminLevel() != 2 {
		t.Errorf("AdminLevel = %d, want 2", user.AdminLevel())
	}
}

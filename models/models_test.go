package models

import "testing"

func TestOwnedBy(t *testing.T) {
	event := &Event{Owner: ModeratorOwner(10)}

	if !event.OwnedBy(10, RoleModerator) {
		t.Error("модератор должен владеть своим событием")
	}
	if event.OwnedBy(11, RoleModerator) {
		t.Error("чужой модератор не должен владеть событием")
	}
	if !event.OwnedBy(999, RoleAdmin) {
		t.Error("администратор владеет любым событием")
	}

	adminEvent := &Event{Owner: AdminOwner}
	if adminEvent.OwnedBy(10, RoleModerator) {
		t.Error("модератор не владеет событиями администратора")
	}
}

func TestModeratorOwner(t *testing.T) {
	if got := ModeratorOwner(123); got != "moderator:123" {
		t.Errorf("ModeratorOwner = %q", got)
	}
}

func TestUserMembership(t *testing.T) {
	user := &User{RegisteredEvents: []int64{1, 10}, RedeemedEvents: []int64{1}}

	if !user.IsRegistered(10) || user.IsRegistered(2) {
		t.Error("IsRegistered")
	}
	if !user.HasRedeemed(1) || user.HasRedeemed(10) {
		t.Error("HasRedeemed")
	}
}

func TestVocabularies(t *testing.T) {
	if !ValidRole("moderator") || ValidRole("superuser") {
		t.Error("ValidRole")
	}
	if !ValidCity("Москва") || ValidCity("Гондор") {
		t.Error("ValidCity")
	}
	if !ValidTag("Экология") || ValidTag("экология") {
		t.Error("ValidTag: сравнение чувствительно к регистру")
	}
}

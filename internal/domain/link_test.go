package domain

import "testing"

func TestParseLink_Username(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@channel", "channel"},
		{"channel", "channel"},
		{"https://t.me/channel", "channel"},
		{"http://t.me/channel", "channel"},
		{"t.me/channel", "channel"},
		{"telegram.me/channel", "channel"},
		{"t.me/channel/", "channel"},
		{"t.me/channel?utm=promo", "channel"},
	}

	for _, tt := range tests {
		got := ParseLink(tt.in)
		if got.Username != tt.want {
			t.Errorf("ParseLink(%q).Username = %q, want %q", tt.in, got.Username, tt.want)
		}
		if got.InviteHash != "" {
			t.Errorf("ParseLink(%q) should not have invite hash", tt.in)
		}
	}
}

func TestParseLink_Invite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://t.me/+AbCdEf123", "AbCdEf123"},
		{"t.me/+AbCdEf123", "AbCdEf123"},
		{"https://t.me/joinchat/AbCdEf123", "AbCdEf123"},
	}

	for _, tt := range tests {
		got := ParseLink(tt.in)
		if got.InviteHash != tt.want {
			t.Errorf("ParseLink(%q).InviteHash = %q, want %q", tt.in, got.InviteHash, tt.want)
		}
		if got.Username != "" {
			t.Errorf("ParseLink(%q) should not have username, got %q", tt.in, got.Username)
		}
	}
}

func TestParseLink_Post(t *testing.T) {
	got := ParseLink("https://t.me/channel/4512")
	if got.Username != "channel" {
		t.Errorf("Username = %q, want channel", got.Username)
	}
	if got.PostID != 4512 {
		t.Errorf("PostID = %d, want 4512", got.PostID)
	}
}

func TestParseLink_Story(t *testing.T) {
	got := ParseLink("https://t.me/channel/s/7")
	if got.Username != "channel" {
		t.Errorf("Username = %q, want channel", got.Username)
	}
	if got.StoryID != 7 {
		t.Errorf("StoryID = %d, want 7", got.StoryID)
	}
	if got.PostID != 0 {
		t.Errorf("PostID should be 0 for story link, got %d", got.PostID)
	}
}

func TestParseLink_BotStart(t *testing.T) {
	got := ParseLink("https://t.me/somebot?start=ref123")
	if got.Username != "somebot" {
		t.Errorf("Username = %q, want somebot", got.Username)
	}
	if got.Start != "ref123" {
		t.Errorf("Start = %q, want ref123", got.Start)
	}
}

func TestParseLink_Empty(t *testing.T) {
	if got := ParseLink(""); !got.IsZero() {
		t.Errorf("ParseLink(\"\") = %+v, want zero", got)
	}
	if got := ParseLink("   "); !got.IsZero() {
		t.Errorf("ParseLink(blank) = %+v, want zero", got)
	}
}

func TestHashLink(t *testing.T) {
	a := HashLink("https://t.me/channel")
	b := HashLink("https://t.me/channel")
	c := HashLink("https://t.me/other")

	if a == "" {
		t.Fatal("hash should not be empty")
	}
	if a != b {
		t.Error("hash should be stable")
	}
	if a == c {
		t.Error("different links should hash differently")
	}
	if HashLink("") != "" {
		t.Error("empty link should hash to empty string")
	}
}

package models

import (
	"testing"
	"time"
)

func TestPostValidate(t *testing.T) {
	tests := []struct {
		name    string
		post    Post
		wantErr bool
	}{
		{
			name:    "valid post",
			post:    NewPost("42", "https://t.me/c/1/42", time.Now()),
			wantErr: false,
		},
		{
			name:    "empty ID",
			post:    Post{MessageURL: "https://t.me/c/1/42", Date: "2024-01-10T00:00:00Z"},
			wantErr: true,
		},
		{
			name:    "empty URL",
			post:    Post{ID: "42", Date: "2024-01-10T00:00:00Z"},
			wantErr: true,
		},
		{
			name:    "empty date",
			post:    Post{ID: "42", MessageURL: "https://t.me/c/1/42"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPostNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	created := time.Date(2024, 1, 10, 2, 0, 0, 0, loc)

	p := NewPost("1", "https://t.me/c/1/1", created)
	if p.Date != "2024-01-10T00:00:00.000000000Z" {
		t.Errorf("Unexpected date: %s", p.Date)
	}

	ts, err := p.Timestamp()
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if !ts.Equal(created) {
		t.Errorf("Expected %v, got %v", created, ts)
	}
}

func TestPostTimestampAcceptsPlainRFC3339(t *testing.T) {
	p := Post{ID: "1", MessageURL: "u", Date: "2024-01-08T00:00:00+00:00"}
	ts, err := p.Timestamp()
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Day() != 8 {
		t.Errorf("Expected day 8, got %d", ts.Day())
	}

	bad := Post{ID: "2", MessageURL: "u", Date: "yesterday"}
	if _, err := bad.Timestamp(); err == nil {
		t.Error("Expected parse error for malformed date")
	}
}

func TestInboundMessagePost(t *testing.T) {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	msg := InboundMessage{MessageID: 77, Permalink: "https://t.me/bakery/77", CreatedAt: created}

	p := msg.Post()
	if p.ID != "77" {
		t.Errorf("Expected ID 77, got %s", p.ID)
	}
	if p.MessageURL != msg.Permalink {
		t.Errorf("Expected URL %s, got %s", msg.Permalink, p.MessageURL)
	}
}

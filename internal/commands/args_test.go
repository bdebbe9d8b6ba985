package commands

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"taskflow/internal/service"
)

func TestResolveUser(t *testing.T) {
	users := []service.User{
		{ID: "u2", Name: "Bob", Email: "bob@example.com"},
		{ID: "u3", Name: "Carol", Email: "carol@example.com"},
		{ID: "u4", Name: "Carol", Email: "carol.b@example.com"},
		{ID: "Bob", Name: "Robert", Email: "robert@example.com"},
	}
	tests := []struct {
		ref     string
		wantID  string
		wantErr string
	}{
		{"u2", "u2", ""},
		{"BOB@example.com", "u2", ""},
		{"  bob  ", "u2", ""},
		{"Bob", "Bob", ""}, // ids win over names
		{"carol.b@example.com", "u4", ""},
		{"carol", "", "ambiguous user name: carol (use the email)"},
		{"zed", "", "user not found: zed"},
		{"", "", "user required"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveUser(users, tt.ref)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("expected %s, got %s", tt.wantID, got.ID)
			}
		})
	}
}

func TestTaskIDAndStatus(t *testing.T) {
	id, status, err := taskIDAndStatus([]string{"t1", "In", "Progress"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "t1" || status != service.StatusInProgress {
		t.Errorf("got %q %q", id, status)
	}

	if _, _, err := taskIDAndStatus(nil); err != ErrIDRequired {
		t.Errorf("expected ErrIDRequired, got %v", err)
	}
}

func TestOptString(t *testing.T) {
	var title, desc optString
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&title, "title", "")
	fs.Var(&desc, "desc", "")

	if err := fs.Parse([]string{"--desc", ""}); err != nil {
		t.Fatal(err)
	}
	if title.ptr() != nil {
		t.Error("title was not given")
	}
	if p := desc.ptr(); p == nil || *p != "" {
		t.Errorf("desc should be set to empty, got %v", p)
	}
}

func TestParseDue(t *testing.T) {
	d, err := parseDue(" 2026-03-01 ")
	if err != nil {
		t.Fatal(err)
	}
	if d.Format("2006-01-02") != "2026-03-01" {
		t.Errorf("got %v", d)
	}
	if _, err := parseDue("03/01/2026"); err == nil {
		t.Error("expected error")
	}
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("YES\nada@example.com\n"), &out)

	if !c.Confirm("Delete this task?") {
		t.Error("YES should confirm")
	}
	email, err := c.Ask("Email")
	if err != nil || email != "ada@example.com" {
		t.Errorf("got %q, %v", email, err)
	}
	if c.Confirm("Again?") {
		t.Error("end of input should decline")
	}
	if _, err := c.AskSecret("Password"); err == nil {
		t.Error("expected error at end of input")
	}
	c.Alert("Delete failed")

	want := "Delete this task? [y/N] Email: Again? [y/N] Password: error: Delete failed\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestConsole_AskSecretFromPipe(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("s3cret \n"), &out)

	password, err := c.AskSecret("Password")

	if err != nil || password != "s3cret" {
		t.Errorf("got %q, %v", password, err)
	}
	if out.String() != "Password: " {
		t.Errorf("unexpected prompt %q", out.String())
	}
}

func TestAssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := assumeYes{NewConsole(strings.NewReader(""), &out)}
	if !p.Confirm("Delete this task?") {
		t.Error("expected confirmation")
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt, got %q", out.String())
	}
}

package jsonfix

import (
	"reflect"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFix(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		wantLines []int
	}{
		{
			name: "clean document untouched",
			in:   "{\n  \"a\": \"b\\nc\"\n}",
			want: "{\n  \"a\": \"b\\nc\"\n}",
		},
		{
			name:      "raw newline escaped",
			in:        "{\n  \"a\": \"one\ntwo\"\n}",
			want:      "{\n  \"a\": \"one\\ntwo\"\n}",
			wantLines: []int{2},
		},
		{
			name:      "crlf collapses to one escape",
			in:        "{\"a\": \"one\r\ntwo\"}",
			want:      "{\"a\": \"one\\ntwo\"}",
			wantLines: []int{1},
		},
		{
			name:      "escaped quotes respected",
			in:        "[\"say \\\"hi\\\"\",\n\"x\ny\"]",
			want:      "[\"say \\\"hi\\\"\",\n\"x\\ny\"]",
			wantLines: []int{2},
		},
		{
			name:      "line numbers count earlier broken literals",
			in:        "[\"a\nb\",\n\"c\nd\"]",
			want:      "[\"a\\nb\",\n\"c\\nd\"]",
			wantLines: []int{1, 3},
		},
		{
			name: "unterminated literal copied",
			in:   "{\"a\": \"open\n",
			want: "{\"a\": \"open\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fixes := Fix([]byte(tt.in))
			if string(got) != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
			if len(fixes) != len(tt.wantLines) {
				t.Fatalf("got %d fixes want %d", len(fixes), len(tt.wantLines))
			}
			for i, f := range fixes {
				if f.Line != tt.wantLines[i] {
					t.Fatalf("fix %d line = %d want %d", i, f.Line, tt.wantLines[i])
				}
			}
		})
	}
}

func TestFixReportsRepairs(t *testing.T) {
	_, got := Fix([]byte("{\n  \"a\": \"one\ntwo\",\n  \"b\": \"ok\"\n}"))
	want := []Repair{{Line: 2, Snippet: "one two"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestFixSnippetTruncates(t *testing.T) {
	long := strings.Repeat("あ", 60)
	_, fixes := Fix([]byte("\"" + long + "\nend\""))
	if len(fixes) != 1 {
		t.Fatalf("got %d fixes", len(fixes))
	}
	if got := []rune(fixes[0].Snippet); len(got) != 50 {
		t.Fatalf("snippet has %d runes", len(got))
	}
}

func TestFixTree(t *testing.T) {
	root := t.TempDir()
	broken := filepath.Join(root, "sub", "broken.json")
	clean := filepath.Join(root, "clean.json")
	other := filepath.Join(root, "notes.txt")
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		broken: "{\"a\": \"x\ny\"}",
		clean:  "{\"a\": \"x\"}",
		other:  "\"x\ny\"",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cleanInfo, _ := os.Stat(clean)

	summary, err := FixTree(context.Background(), root, ".json", nil)
	if err != nil {
		t.Fatalf("FixTree: %v", err)
	}
	if len(summary.Files) != 1 || summary.Files[0].Path != broken {
		t.Fatalf("summary files = %+v", summary.Files)
	}

	got, _ := os.ReadFile(broken)
	if string(got) != "{\"a\": \"x\\ny\"}" {
		t.Fatalf("broken file = %q", got)
	}
	got, _ = os.ReadFile(other)
	if string(got) != files[other] {
		t.Fatalf("non-json file rewritten: %q", got)
	}
	info, _ := os.Stat(clean)
	if !info.ModTime().Equal(cleanInfo.ModTime()) {
		t.Fatal("clean file rewritten")
	}
}

func TestFixTreeCancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FixTree(ctx, root, ".json", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v want context.Canceled", err)
	}
}

func TestWriteLog(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	var b strings.Builder
	if err := WriteLog(&b, Summary{Root: "/data"}, now); err != nil {
		t.Fatal(err)
	}
	want := "Scan Date: 2026-03-01 09:30:00\nRoot Directory: /data\nTotal Files Fixed: 0\n" +
		strings.Repeat("=", 60) + "\n\nNo issues found or fixed."
	if b.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", b.String(), want)
	}

	b.Reset()
	s := Summary{
		Root:   "/data",
		Files:  []FileFixes{{Path: "/data/a.json", Fixes: []Repair{{Line: 4, Snippet: "hello there"}}}},
		Errors: []FileError{{Path: "/data/b.json", Err: errors.New("denied")}},
	}
	if err := WriteLog(&b, s, now); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Total Files Fixed: 1",
		"ERRORS:\nERROR: Could not process /data/b.json. Reason: denied",
		"DETAILED CHANGES:\nFILE: /data/a.json\n  Line 4: Fixed broken break in string starting with: \"hello there...\"\n" + strings.Repeat("-", 40),
	} {
		if !strings.Contains(b.String(), want) {
			t.Fatalf("log missing %q:\n%s", want, b.String())
		}
	}
}

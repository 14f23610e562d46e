package avatar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseTags(t *testing.T) {
	expression, action := ParseTags("[Expression: smile] [Action: wave]\n\nhello")
	if expression != "smile" {
		t.Fatalf("expected smile, got %s", expression)
	}
	if action != "wave" {
		t.Fatalf("expected wave, got %s", action)
	}
}

func TestParseTagsCaseInsensitive(t *testing.T) {
	expression, action := ParseTags("[expression: SAD] [ACTION: Nod]")
	if expression != "sad" {
		t.Fatalf("expected sad, got %s", expression)
	}
	if action != "nod" {
		t.Fatalf("expected nod, got %s", action)
	}
}

func TestParseTagsDefaults(t *testing.T) {
	expression, action := ParseTags("no tags here")
	if expression != DefaultExpression {
		t.Fatalf("expected %s, got %s", DefaultExpression, expression)
	}
	if action != DefaultAction {
		t.Fatalf("expected %s, got %s", DefaultAction, action)
	}
}

func seedLibrary(t *testing.T) *Library {
	t.Helper()

	dir := t.TempDir()
	for _, expression := range Expressions() {
		for _, action := range Actions() {
			name := filepath.Join(dir, expression+"_"+action+".jpg")
			if err := os.WriteFile(name, []byte("img"), 0o644); err != nil {
				t.Fatalf("seed %s: %v", name, err)
			}
		}
	}

	fallback := filepath.Join(dir, "ema.png")
	if err := os.WriteFile(fallback, []byte("img"), 0o644); err != nil {
		t.Fatalf("seed fallback: %v", err)
	}

	return NewLibrary(dir, fallback)
}

func TestImagePathResolvesEveryEnumPair(t *testing.T) {
	lib := seedLibrary(t)

	for _, expression := range Expressions() {
		for _, action := range Actions() {
			path := lib.ImagePath(expression, action)
			want := expression + "_" + action + ".jpg"
			if filepath.Base(path) != want {
				t.Fatalf("pair %s/%s resolved to %s, want %s", expression, action, path, want)
			}
		}
	}
}

func TestImagePathOutOfEnumFallsBack(t *testing.T) {
	lib := seedLibrary(t)

	path := lib.ImagePath("grimace", "backflip")
	if filepath.Base(path) != "ema.png" {
		t.Fatalf("expected fallback avatar, got %s", path)
	}
}

func TestImageForContent(t *testing.T) {
	lib := seedLibrary(t)

	path := lib.ImageForContent("[Expression: surprised] [Action: jump]\n\nwow")
	if filepath.Base(path) != "surprised_jump.jpg" {
		t.Fatalf("unexpected portrait: %s", path)
	}
}

func TestEmoji(t *testing.T) {
	if Emoji("smile") != "😊" {
		t.Fatalf("unexpected emoji for smile: %s", Emoji("smile"))
	}
	if Emoji("unknown") != "💬" {
		t.Fatalf("expected generic emoji for unknown expression, got %s", Emoji("unknown"))
	}
}

package feedback

import (
	"testing"
	"time"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"forward slashes kept", "/home/user/project", "/home/user/project"},
		{"backslashes converted", `C:\Users\Dev\Project`, "c:/users/dev/project"},
		{"trailing slash stripped", "/home/user/project/", "/home/user/project"},
		{"multiple trailing slashes stripped", "/home/user/project///", "/home/user/project"},
		{"lowercased", "/Home/User/PROJECT", "/home/user/project"},
		{"root kept", "/", "/"},
		{"empty stays empty", "", ""},
		{"dot stays dot", ".", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.in); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchesWorkspace(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		folders []string
		want    bool
	}{
		{"exact match", "/home/user/proj", []string{"/home/user/proj"}, true},
		{"case-insensitive match", "/Home/User/Proj", []string{"/home/user/PROJ"}, true},
		{"separator-insensitive match", `C:\work\app`, []string{"c:/work/app/"}, true},
		{"different directory", "/home/user/other", []string{"/home/user/proj"}, false},
		{"prefix is not a match", "/home/user/proj/sub", []string{"/home/user/proj"}, false},
		{"second folder matches", "/b", []string{"/a", "/b"}, true},
		// The asymmetric corners:
		{"no folders accepts empty dir", "", nil, true},
		{"no folders accepts dot dir", ".", nil, true},
		{"no folders rejects owned dir", "/home/user/proj", nil, false},
		{"folders reject empty dir", "", []string{"/home/user/proj"}, false},
		{"folders reject dot dir", ".", []string{"/home/user/proj"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesWorkspace(tt.dir, tt.folders); got != tt.want {
				t.Errorf("MatchesWorkspace(%q, %v) = %v, want %v", tt.dir, tt.folders, got, tt.want)
			}
		})
	}
}

func TestOwnerMatches(t *testing.T) {
	folders := []string{"/home/user/proj"}

	if !OwnerMatches("", false, folders) {
		t.Error("unclaimed broker should match any window")
	}
	if !OwnerMatches("", false, nil) {
		t.Error("unclaimed broker should match a window with no workspace")
	}
	if !OwnerMatches("/home/user/proj", true, folders) {
		t.Error("matching owner should match")
	}
	if OwnerMatches("/home/user/other", true, folders) {
		t.Error("foreign owner should not match")
	}
	if OwnerMatches("/home/user/proj", true, nil) {
		t.Error("owned broker should not match a window with no workspace")
	}
}

func TestMIMETypeForName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"shot.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"modern.webp", "image/webp"},
		{"unknown.bmp", "image/png"},
		{"noextension", "image/png"},
	}

	for _, tt := range tests {
		if got := MIMETypeForName(tt.name); got != tt.want {
			t.Errorf("MIMETypeForName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequestAge(t *testing.T) {
	now := time.Now()
	req := Request{CreatedAt: now.Add(-3 * time.Second).UnixMilli()}

	age := req.Age(now)
	if age < 2900*time.Millisecond || age > 3100*time.Millisecond {
		t.Errorf("expected age around 3s, got %v", age)
	}
}

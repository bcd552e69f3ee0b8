package gitutil

import "testing"

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"https with .git", "https://github.com/pallets/flask.git", "pallets/flask", false},
		{"https without .git", "https://github.com/pallets/flask", "pallets/flask", false},
		{"ssh", "git@github.com:pallets/flask.git", "pallets/flask", false},
		{"https root", "https://github.com/", "", true},
		{"garbage", "not-a-url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RepoNameFromURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RepoNameFromURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RepoNameFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRepoNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/user/projects/flask", "flask"},
		{"flask/", "flask"},
		{".", "repository"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := RepoNameFromPath(tt.path); got != tt.want {
				t.Errorf("RepoNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

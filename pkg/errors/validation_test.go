package errors

import (
	"testing"
)

func TestValidateChannelName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "blocks", false},
		{"valid namespaced", "quai:mainnet:blocks", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"space", "new blocks", true},
		{"newline", "blocks\n", true},
		{"control char", "blo\x01cks", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChannelName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChannelName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStreamURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ws", "ws://localhost:8080/feed", false},
		{"wss", "wss://stream.example.org/blocks", false},

		{"empty", "", true},
		{"http scheme", "http://localhost:8080", true},
		{"no host", "ws:///feed", true},
		{"garbage", "://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStreamURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStreamURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidURL) {
				t.Errorf("ValidateStreamURL(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidURL)
			}
		})
	}
}

func TestValidateExplorerURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://quaiscan.io", false},
		{"http", "http://localhost:4000", false},

		{"empty", "", true},
		{"ws scheme", "ws://localhost:8080", true},
		{"no host", "https:///block", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExplorerURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExplorerURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "testdata/blocks.jsonl", false},
		{"absolute", "/var/lib/chainflow/feed.jsonl", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 5000)), true},
		{"null byte", "feed\x00.jsonl", true},
		{"control char", "feed\x1b.jsonl", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

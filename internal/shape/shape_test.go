package shape

import "testing"

// TestDetect covers the discriminator-driven and structural detection paths.
func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		doc        map[string]any
		want       Shape
		recognized bool
	}{
		{
			name:       "webapp discriminator",
			doc:        map[string]any{"source": "telegram", "user": "42"},
			want:       Webapp,
			recognized: true,
		},
		{
			name:       "miner discriminator",
			doc:        map[string]any{"source": "telegramMiner", "user": "42"},
			want:       Miner,
			recognized: true,
		},
		{
			name:       "unknown discriminator falls back to miner",
			doc:        map[string]any{"source": "whatsapp"},
			want:       Miner,
			recognized: false,
		},
		{
			name:       "missing discriminator falls back to miner",
			doc:        map[string]any{"user": "42"},
			want:       Miner,
			recognized: false,
		},
		{
			name:       "legacy probed structurally",
			doc:        map[string]any{"userId": "u-1", "profile": map[string]any{"name": "A"}},
			want:       Legacy,
			recognized: true,
		},
		{
			name:       "userId alone is not legacy",
			doc:        map[string]any{"userId": "u-1", "source": "telegram"},
			want:       Webapp,
			recognized: true,
		},
		{
			name:       "legacy wins over discriminator",
			doc:        map[string]any{"userId": "u-1", "profile": map[string]any{}, "source": "telegram"},
			want:       Legacy,
			recognized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, recognized := Detect(tt.doc)
			if got != tt.want {
				t.Errorf("Detect() shape = %v, want %v", got, tt.want)
			}
			if recognized != tt.recognized {
				t.Errorf("Detect() recognized = %v, want %v", recognized, tt.recognized)
			}
		})
	}
}

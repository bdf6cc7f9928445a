package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerationRequestDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want GenerationRequest
	}{
		{
			name: "omitted fields get defaults",
			body: `{"userInput":"jazz song"}`,
			want: GenerationRequest{UserInput: "jazz song", Temperature: DefaultTemperature, BPM: DefaultBPM, Balance: DefaultBalance},
		},
		{
			name: "explicit values kept",
			body: `{"userInput":"jazz song","temperature":0.3,"bpm":90,"balance":0.5}`,
			want: GenerationRequest{UserInput: "jazz song", Temperature: 0.3, BPM: 90, Balance: 0.5},
		},
		{
			name: "explicit zeros survive",
			body: `{"userInput":"quiet piano","temperature":0,"balance":0}`,
			want: GenerationRequest{UserInput: "quiet piano", Temperature: 0, BPM: DefaultBPM, Balance: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GenerationRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			require.Equal(t, tt.want, got)
		})
	}
}

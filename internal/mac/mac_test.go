package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"colon upper", "AA:BB:CC:DD:EE:FF", true},
		{"colon lower", "aa:bb:cc:dd:ee:ff", true},
		{"dash", "00-11-22-33-44-55", true},
		{"mixed case", "aA:Bb:cC:dD:eE:fF", true},
		{"mixed separators", "AA:BB-CC:DD-EE:FF", true},
		{"five groups", "AA:BB:CC:DD:EE", false},
		{"seven groups", "AA:BB:CC:DD:EE:FF:00", false},
		{"non hex", "GG:BB:CC:DD:EE:FF", false},
		{"odd digit count", "A:BB:CC:DD:EE:FF", false},
		{"three digit group", "AAA:BB:CC:DD:EE:FF", false},
		{"dot separator", "AA.BB.CC.DD.EE.FF", false},
		{"no separators", "AABBCCDDEEFF", false},
		{"trailing separator", "AA:BB:CC:DD:EE:FF:", false},
		{"surrounding space", " AA:BB:CC:DD:EE:FF", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.input))
		})
	}
}

package tools

import "testing"

func TestEffectiveSeed(t *testing.T) {
	seed := func(v int64) *int64 { return &v }

	tests := []struct {
		name   string
		seed   *int64
		want   int64
		wantOK bool
	}{
		{"no seed", nil, 0, false},
		{"small seed passes through", seed(123), 123, true},
		{"boundary value passes through", seed(10000), 10000, true},
		{"large seed reduced", seed(10001), 1, true},
		{"chain-scale seed reduced", seed(987654321), 4321, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AgentContext{AgentID: "a", Seed: tt.seed}.EffectiveSeed()
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("EffectiveSeed() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

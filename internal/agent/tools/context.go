package tools

// AgentContext carries the identity bound into a tool at resolution time.
// Tools receive the agent id and creative seed through binding rather than
// through model-visible parameters, so the LLM never sees or controls them.
type AgentContext struct {
	AgentID string
	Seed    *int64
}

const seedModulus = 10000

// EffectiveSeed returns the seed value a generation backend should use.
// Seeds above the modulus are reduced so arbitrary on-chain values map into
// the range backends accept. The second return reports whether a seed is
// set at all.
func (a AgentContext) EffectiveSeed() (int64, bool) {
	if a.Seed == nil {
		return 0, false
	}
	s := *a.Seed
	if s > seedModulus {
		s = s % seedModulus
	}
	return s, true
}

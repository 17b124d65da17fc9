package safety

// Mode controls how a Confirm verdict is post-processed before it reaches
// the agent loop's gate.
type Mode string

const (
	// ModeConfirm leaves Confirm verdicts as-is (the default).
	ModeConfirm Mode = "confirm"
	// ModeWarn downgrades Confirm to Safe but marks the verdict as warned;
	// Blocked is never downgraded.
	ModeWarn Mode = "warn"
	// ModeYolo downgrades Confirm to Safe outright; Blocked is never
	// downgraded.
	ModeYolo Mode = "yolo"
)

// Policy is the Safety Policy data model: three ordered pattern lists plus a
// mode and a list of sensitive path patterns gating read_file.
type Policy struct {
	Blocked        []Pattern
	AlwaysConfirm  []Pattern
	SensitivePaths []Pattern
	Mode           Mode
}

// NewDefaultPolicy builds a Policy from the default pattern lists with
// ModeConfirm, the conservative default mode.
func NewDefaultPolicy() *Policy {
	return &Policy{
		Blocked:        DefaultBlocked,
		AlwaysConfirm:  DefaultAlwaysConfirm,
		SensitivePaths: DefaultSensitivePaths,
		Mode:           ModeConfirm,
	}
}

// MatchesSensitivePath reports whether the given path matches any
// sensitive-path pattern, used by read_file's classification rule.
func (p *Policy) MatchesSensitivePath(path string) (string, bool) {
	for _, pat := range p.SensitivePaths {
		if pat.Regexp.MatchString(path) {
			return pat.Reason, true
		}
	}
	return "", false
}

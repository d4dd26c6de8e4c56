package errlog

// Severity drives both the logging policy and the toast variant.
type Severity string

const (
	SeverityLow      Severity = "low"      // validation, informational
	SeverityMedium   Severity = "medium"   // default, unclassified
	SeverityHigh     Severity = "high"     // network, auth
	SeverityCritical Severity = "critical" // escalation-worthy
)

// Severities lists the taxonomy from the least to the most severe.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// OrDefault returns s, or SeverityMedium when s is unset or outside the taxonomy.
func (s Severity) OrDefault() Severity {
	if !s.Valid() {
		return SeverityMedium
	}
	return s
}

// Variant is the visual flavour of a toast.
type Variant string

const (
	VariantDestructive Variant = "destructive"
	VariantWarning     Variant = "warning"
	VariantInfo        Variant = "info"
)

// Variant maps a severity to its toast variant.
func (s Severity) Variant() Variant {
	switch s {
	case SeverityCritical, SeverityHigh:
		return VariantDestructive
	case SeverityMedium:
		return VariantWarning
	default:
		return VariantInfo
	}
}

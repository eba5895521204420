package feed

import "fmt"

// AgeFormatter renders a token age, given in minutes, into a display string.
//
// It is a collaborator of the Expander so that rendering conventions stay out
// of the expansion logic and can be swapped per surface.
type AgeFormatter interface {
	// FormatAge formats an age expressed in minutes.
	FormatAge(minutes float64) string
}

// defaultAgeFormatter renders ages as compact "5m" / "3h" / "2d" strings.
type defaultAgeFormatter struct{}

var _ AgeFormatter = defaultAgeFormatter{}

func (defaultAgeFormatter) FormatAge(minutes float64) string {
	switch {
	case minutes < 0:
		return ""
	case minutes < 60:
		return fmt.Sprintf("%dm", int(minutes))
	case minutes < 24*60:
		return fmt.Sprintf("%dh", int(minutes/60))
	default:
		return fmt.Sprintf("%dd", int(minutes/(24*60)))
	}
}

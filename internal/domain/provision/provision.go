// Package provision defines the domain types for locating and installing the
// language server executable: command names, resolved paths, install sessions,
// persisted preferences and the user choices offered when provisioning is impossible.
package provision

// CommandName identifies an executable to find or install (e.g. "simplicityhl-lsp").
type CommandName string

// String returns the command as a plain string.
func (c CommandName) String() string { return string(c) }

// ResolvedPath is an absolute path to an executable. The empty value means
// the executable was not found; not-found is a normal result, not an error.
type ResolvedPath string

// NotFound is the absent ResolvedPath.
const NotFound ResolvedPath = ""

// Found reports whether the path refers to an executable.
func (p ResolvedPath) Found() bool { return p != NotFound }

// String returns the path as a plain string.
func (p ResolvedPath) String() string { return string(p) }

// Preferences are the user-controlled flags persisted in the editor's
// configuration store under the extension namespace.
type Preferences struct {
	SuppressMissingLspWarning bool `yaml:"suppressMissingLspWarning" json:"suppressMissingLspWarning"`
	DisableAutoupdate         bool `yaml:"disableAutoupdate" json:"disableAutoupdate"`
}

// Preference option keys as they appear in the configuration store.
const (
	KeySuppressMissingLspWarning = "suppressMissingLspWarning"
	KeyDisableAutoupdate         = "disableAutoupdate"
)

// Choice is the answer to a warning dialog.
type Choice int

const (
	// ChoiceDismissed means the dialog was closed without picking an action.
	ChoiceDismissed Choice = iota
	// ChoiceLearnMore opens the toolchain installation documentation.
	ChoiceLearnMore
	// ChoiceDontShowAgain persists the suppress-warning preference.
	ChoiceDontShowAgain
)

// Label returns the button text shown for the choice.
func (c Choice) Label() string {
	switch c {
	case ChoiceLearnMore:
		return "Learn more"
	case ChoiceDontShowAgain:
		return "Don't show again"
	default:
		return "Dismiss"
	}
}

// String implements fmt.Stringer.
func (c Choice) String() string {
	switch c {
	case ChoiceLearnMore:
		return "learn_more"
	case ChoiceDontShowAgain:
		return "dont_show_again"
	default:
		return "dismissed"
	}
}

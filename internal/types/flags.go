package types

// GlobalFlags holds flags shared across all commands
type GlobalFlags struct {
	Config    string
	LogFile   string
	Quiet     bool
	Verbose   bool
	NoBrowser bool
}

package logger

// OutputCategory is a kind of CLI output. Log levels filter by severity;
// categories decide which extra information a command prints at a given
// -v count.
type OutputCategory int

const (
	OutputResults    OutputCategory = iota // command output
	OutputErrors                           // errors with hints
	OutputUserStatus                       // final success or failure line

	OutputProgress      // per-file import lines
	OutputOperationInfo // merge and import summaries

	OutputPathResolution // segment bindings of a feature path
	OutputTiming         // operation durations
	OutputConfig         // config values loaded
	OutputDBStats        // database path and statistics

	OutputTraversal  // per-structure evaluation steps
	OutputSQLQueries // individual SQL statements

	OutputDataDump // whole vectors instead of previews
)

var categories = [...]struct {
	minVerbosity int
	name         string
}{
	OutputResults:        {VerbosityUser, "results"},
	OutputErrors:         {VerbosityUser, "errors"},
	OutputUserStatus:     {VerbosityUser, "status"},
	OutputProgress:       {VerbosityInfo, "progress"},
	OutputOperationInfo:  {VerbosityInfo, "operation-info"},
	OutputPathResolution: {VerbosityDebug, "path-resolution"},
	OutputTiming:         {VerbosityDebug, "timing"},
	OutputConfig:         {VerbosityDebug, "config"},
	OutputDBStats:        {VerbosityDebug, "db-stats"},
	OutputTraversal:      {VerbosityTrace, "traversal"},
	OutputSQLQueries:     {VerbosityTrace, "sql"},
	OutputDataDump:       {VerbosityAll, "data-dump"},
}

func known(c OutputCategory) bool { return c >= 0 && int(c) < len(categories) }

// ShouldOutput reports whether category is shown at verbosity. Unknown
// categories need the highest verbosity.
func ShouldOutput(verbosity int, category OutputCategory) bool {
	if !known(category) {
		return verbosity >= VerbosityAll
	}
	return verbosity >= categories[category].minVerbosity
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if !known(category) {
		return "unknown"
	}
	return categories[category].name
}

// EnabledCategories returns the categories shown at verbosity, in order.
func EnabledCategories(verbosity int) []OutputCategory {
	var enabled []OutputCategory
	for c := range categories {
		if ShouldOutput(verbosity, OutputCategory(c)) {
			enabled = append(enabled, OutputCategory(c))
		}
	}
	return enabled
}

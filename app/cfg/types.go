package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	BatchSize         int
	BatchPacing       int // seconds between source batches
	SchedulerInterval int // seconds
	WindowDays        int // recency window in days for routine refresh
	BackfillDays      int // historical backfill window, 0 = disabled
	FetchTimeout      int // seconds
	TLSInsecure       bool
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

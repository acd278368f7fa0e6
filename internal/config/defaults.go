package config

const (
	defaultRootDir          = "~/.local/share/bellastore"
	defaultCatalogFilename  = "scans.sqlite"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultMaxBackups       = 10
	defaultPruneEmptyDirs   = true

	storageDirName = "storage"
	backupDirName  = "backup"
	logDirName     = "logs"
	lockFileName   = ".bellastore.lock"
)

// DefaultExtensions is the scanner format allow-list. ".mrxs" is the
// composite format whose payload lives in a sibling directory.
var DefaultExtensions = []string{".ndpi", ".svs", ".tif", ".tiff", ".mrxs"}

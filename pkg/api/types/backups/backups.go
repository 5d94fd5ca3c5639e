package backups

// Summary is one backup archive on disk.
type Summary struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

type List struct {
	Backups []Summary `json:"backups"`
}

// Restored reports which archive the database was loaded back from.
type Restored struct {
	Archive string `json:"archive"`
}

package session

// RecordStatus tracks an image file through a run.
type RecordStatus string

// Record statuses. A record starts pending and moves to exactly one of the
// other states; ok records are the clustering input, the rest land in the
// error report.
const (
	RecordPending    RecordStatus = "pending"
	RecordOK         RecordStatus = "ok"
	RecordUnreadable RecordStatus = "unreadable"
	RecordMissing    RecordStatus = "missing"
)

// ImageRecord is one discovered file and, once embedded, its vector.
type ImageRecord struct {
	Path   string
	Vector []float32
	Status RecordStatus
}

// ErrorEntry is one file that could not be embedded.
type ErrorEntry struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

package index

// RecordVersion is bumped whenever the cache layout changes; older records are rebuilt.
const RecordVersion = 1

// Entry is one installed game.
//
// JSON names match the historic cache.json layout.
type Entry struct {
	ID       string `json:"gameId"`
	Title    string `json:"gameTitle"`
	IconPath string `json:"gameIcon"`
}

// Index is the ordered set of entries, in manifest discovery order.
type Index []Entry

// Record is the durable form of an Index written to cache.json.
type Record struct {
	Version       int    `json:"version"`
	CreatedAt     string `json:"created_at"`
	LibraryRoot   string `json:"library_root"`
	ManifestCount int    `json:"manifest_count"`
	Entries       Index  `json:"entries"`
}
